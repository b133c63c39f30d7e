package tuitest

import (
	"bytes"
	"io"
)

// terminalQuery pairs a capability probe a program may write with the reply a
// real terminal would send. Lip Gloss probes colours on start-up and blocks
// until it gets an answer.
type terminalQuery struct {
	probe []byte
	reply []byte
}

var terminalQueries = []terminalQuery{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, 128)}
}

// Process scans output for probes and answers them. A short tail is kept so a
// probe split across reads is still seen.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerOne() {
	}
	if len(tr.buf) > 256 {
		tr.buf = tr.buf[len(tr.buf)-64:]
	}
}

// answerOne replies to the earliest probe in the buffer.
func (tr *terminalResponder) answerOne() bool {
	best, at := -1, -1
	for i, q := range terminalQueries {
		idx := bytes.Index(tr.buf, q.probe)
		if idx >= 0 && (at < 0 || idx < at) {
			best, at = i, idx
		}
	}
	if best < 0 {
		return false
	}
	q := terminalQueries[best]
	tr.buf = tr.buf[at+len(q.probe):]
	_, _ = tr.w.Write(q.reply)
	return true
}
