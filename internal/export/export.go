// Package export writes and reads event archives as JSON lines, zstd
// compressed when the file name ends in .zst.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/dgnsrekt/gwsync/internal/data"
)

const (
	CompressedExt = ".zst"

	defaultPageSize = 500
	maxLineSize     = 1024 * 1024
)

// Writer encodes one event per line.
type Writer struct {
	zw    *zstd.Encoder
	bw    *bufio.Writer
	enc   *json.Encoder
	count int
}

// NewWriter wraps w. When compress is set the stream is zstd framed.
func NewWriter(w io.Writer, compress bool) (*Writer, error) {
	out := &Writer{}
	if compress {
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		out.zw = zw
		w = zw
	}
	out.bw = bufio.NewWriter(w)
	out.enc = json.NewEncoder(out.bw)
	return out, nil
}

func (w *Writer) Write(e data.Event) error {
	if err := w.enc.Encode(e); err != nil {
		return fmt.Errorf("encode event %d: %w", e.ID, err)
	}
	w.count++
	return nil
}

func (w *Writer) Count() int {
	return w.count
}

// Close flushes buffered lines and ends the zstd frame. It does not close
// the underlying writer.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	if w.zw != nil {
		return w.zw.Close()
	}
	return nil
}

// Reader decodes events written by Writer.
type Reader struct {
	zr      *zstd.Decoder
	scanner *bufio.Scanner
}

func NewReader(r io.Reader, compressed bool) (*Reader, error) {
	out := &Reader{}
	if compressed {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		out.zr = zr
		r = zr
	}
	out.scanner = bufio.NewScanner(r)
	out.scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return out, nil
}

// Next returns the next event or io.EOF.
func (r *Reader) Next() (data.Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e data.Event
		if err := json.Unmarshal(line, &e); err != nil {
			return data.Event{}, fmt.Errorf("decode event: %w", err)
		}
		return e, nil
	}
	if err := r.scanner.Err(); err != nil {
		return data.Event{}, err
	}
	return data.Event{}, io.EOF
}

func (r *Reader) Close() {
	if r.zr != nil {
		r.zr.Close()
	}
}

// EventSource pages archived events in ascending id order.
type EventSource interface {
	ListEvents(ctx context.Context, since uint64, limit int) ([]data.Event, error)
}

// Dump copies every event with id > since from src into w.
func Dump(ctx context.Context, src EventSource, w *Writer, since uint64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		events, err := src.ListEvents(ctx, since, defaultPageSize)
		if err != nil {
			return fmt.Errorf("list events since %d: %w", since, err)
		}
		for _, e := range events {
			if err := w.Write(e); err != nil {
				return err
			}
			since = e.ID
		}
		if len(events) < defaultPageSize {
			return nil
		}
	}
}

// DumpFile writes the archive to path, compressing when path ends in .zst.
// It returns the number of events written.
func DumpFile(ctx context.Context, src EventSource, path string, since uint64) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := NewWriter(f, strings.HasSuffix(path, CompressedExt))
	if err != nil {
		return 0, err
	}
	if err := Dump(ctx, src, w, since); err != nil {
		_ = w.Close()
		return w.Count(), err
	}
	return w.Count(), w.Close()
}

// ReadFile loads every event from an archive written by DumpFile.
func ReadFile(path string) ([]data.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := NewReader(f, strings.HasSuffix(path, CompressedExt))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var events []data.Event
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
}
