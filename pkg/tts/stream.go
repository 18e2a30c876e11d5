package tts

import (
	"bytes"
	"fmt"
	"io"
)

// chunkSize is the read size for relayed streams.
const chunkSize = 4096

// ReadAll drains s and returns the concatenated audio. s is not closed.
func ReadAll(s AudioStream) ([]byte, error) {
	var buf bytes.Buffer
	_, err := Copy(&buf, s)
	return buf.Bytes(), err
}

// Copy writes every chunk of s to w until the stream ends.
// It returns the number of bytes written. s is not closed.
func Copy(w io.Writer, s AudioStream) (int64, error) {
	var total int64
	for {
		chunk, err := s.Read()
		if err != nil {
			return total, err
		}
		if chunk == nil {
			return total, nil
		}
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("tts: write chunk: %w", err)
		}
	}
}

// bufferStream wraps a byte slice as AudioStream.
type bufferStream struct {
	data   []byte
	offset int
	format AudioFormat
}

// NewBufferStream exposes a complete buffer as a stream.
func NewBufferStream(data []byte, format AudioFormat) AudioStream {
	return &bufferStream{data: data, format: format}
}

func (s *bufferStream) Read() ([]byte, error) {
	if s.offset >= len(s.data) {
		return nil, nil
	}
	end := s.offset + chunkSize
	if end > len(s.data) {
		end = len(s.data)
	}
	chunk := s.data[s.offset:end]
	s.offset = end
	return chunk, nil
}

func (s *bufferStream) Close() error {
	s.offset = len(s.data)
	return nil
}

func (s *bufferStream) Format() AudioFormat {
	return s.format
}

// readerStream relays an io.ReadCloser in chunkSize pieces.
// done, when set, runs once after EOF and may turn a clean end into an
// error (a subprocess exiting non-zero, for example).
type readerStream struct {
	body    io.ReadCloser
	format  AudioFormat
	primed  []byte
	done    func() error
	closeFn func() error
	ended   bool
	closed  bool
	buf     [chunkSize]byte
}

func (s *readerStream) Read() ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.primed != nil {
		chunk := s.primed
		s.primed = nil
		return chunk, nil
	}
	if s.ended {
		return nil, nil
	}

	for {
		n, err := s.body.Read(s.buf[:])
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, s.buf[:n])
			if err == io.EOF {
				// Report EOF on the next call.
				err = nil
			}
			return chunk, err
		}
		if err == io.EOF {
			s.ended = true
			if s.done != nil {
				return nil, s.done()
			}
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// prime reads the first chunk so that startup failures surface as an error
// from Stream rather than mid-response.
func (s *readerStream) prime() error {
	chunk, err := s.Read()
	if err != nil {
		return err
	}
	if chunk == nil {
		return ErrNoAudio
	}
	s.primed = chunk
	return nil
}

func (s *readerStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closeFn != nil {
		return s.closeFn()
	}
	return s.body.Close()
}

func (s *readerStream) Format() AudioFormat {
	return s.format
}
