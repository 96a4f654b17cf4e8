package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const journalBuffer = 256

// Summary is one journal frame describing a completed tick
type Summary struct {
	Tick           int    `msgpack:"tick"`
	DurationMicros int64  `msgpack:"us"`
	Players        int    `msgpack:"players"`
	Bullets        int    `msgpack:"bullets"`
	Explosives     int    `msgpack:"explosives"`
	Objects        int    `msgpack:"objects"`
	FramesSent     int    `msgpack:"sent"`
	Dropped        int    `msgpack:"dropped"`
	Kills          []Kill `msgpack:"kills,omitempty"`
}

type Kill struct {
	Victim int `msgpack:"victim"`
	Killer int `msgpack:"killer"`
	Gun    int `msgpack:"gun"`
}

// Journal appends summaries to zstd compressed msgpack files, starting a
// new file every rotate frames. Writes happen on a background goroutine.
type Journal struct {
	dir    string
	rotate int
	level  zstd.EncoderLevel
	log    *zap.Logger

	mu      sync.RWMutex
	closed  bool
	frames  chan Summary
	done    chan struct{}
	dropped atomic.Int64

	file    *os.File
	zw      *zstd.Encoder
	enc     *msgpack.Encoder
	written int
	err     error
}

// OpenJournal creates dir if needed and starts the writer
func OpenJournal(dir string, rotate, level int, log *zap.Logger) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("journal dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	if rotate <= 0 {
		rotate = 1 << 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	j := &Journal{
		dir:    dir,
		rotate: rotate,
		level:  zstd.EncoderLevelFromZstd(level),
		log:    log,
		frames: make(chan Summary, journalBuffer),
		done:   make(chan struct{}),
	}
	go j.run()
	return j, nil
}

// Record queues s without blocking. Frames are dropped when the writer
// falls behind.
func (j *Journal) Record(s Summary) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.frames <- s:
	default:
		j.dropped.Add(1)
	}
}

// Dropped returns the number of frames lost to a full buffer
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

// Close flushes pending frames and closes the current file
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.frames)
	j.mu.Unlock()

	<-j.done
	return j.err
}

func (j *Journal) run() {
	defer close(j.done)
	for s := range j.frames {
		if err := j.write(s); err != nil {
			j.log.Error("journal write failed", zap.Int("tick", s.Tick), zap.Error(err))
			j.err = err
		}
	}
	if err := j.closeFile(); err != nil {
		j.err = err
	}
}

func (j *Journal) write(s Summary) error {
	if j.enc == nil || j.written >= j.rotate {
		if err := j.closeFile(); err != nil {
			return err
		}
		if err := j.openFile(s.Tick); err != nil {
			return err
		}
	}
	if err := j.enc.Encode(&s); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	j.written++
	return nil
}

func (j *Journal) openFile(tick int) error {
	name := filepath.Join(j.dir, fmt.Sprintf("ticks-%010d.msgpack.zst", tick))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create journal file: %w", err)
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(j.level))
	if err != nil {
		f.Close()
		return fmt.Errorf("zstd writer: %w", err)
	}
	j.file, j.zw, j.enc = f, zw, msgpack.NewEncoder(zw)
	j.written = 0
	j.log.Debug("journal file opened", zap.String("path", name))
	return nil
}

func (j *Journal) closeFile() error {
	if j.file == nil {
		return nil
	}
	zerr := j.zw.Close()
	ferr := j.file.Close()
	j.file, j.zw, j.enc = nil, nil, nil
	if zerr != nil {
		return fmt.Errorf("close zstd stream: %w", zerr)
	}
	if ferr != nil {
		return fmt.Errorf("close journal file: %w", ferr)
	}
	return nil
}

// ReadJournal decodes every frame of one journal file
func ReadJournal(r io.Reader) ([]Summary, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)
	var out []Summary
	for {
		var s Summary
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("decode frame: %w", err)
		}
		out = append(out, s)
	}
}
