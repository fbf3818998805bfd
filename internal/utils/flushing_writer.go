package utils

import "io"

type writerFlusher interface {
	Flush() error
}

// FlushingWriter forwards writes to the wrapped destination and flushes after each write when supported.
type FlushingWriter struct {
	destination io.Writer
}

// NewFlushingWriter wraps the provided writer with flush-after-write behavior.
func NewFlushingWriter(destination io.Writer) io.Writer {
	return &FlushingWriter{destination: destination}
}

// Write forwards the payload and flushes the destination when it exposes a Flush method.
func (writer *FlushingWriter) Write(payload []byte) (int, error) {
	writtenBytes, writeError := writer.destination.Write(payload)
	if writeError != nil {
		return writtenBytes, writeError
	}

	flusher, flushSupported := writer.destination.(writerFlusher)
	if !flushSupported {
		return writtenBytes, nil
	}

	if flushError := flusher.Flush(); flushError != nil {
		return writtenBytes, flushError
	}
	return writtenBytes, nil
}
