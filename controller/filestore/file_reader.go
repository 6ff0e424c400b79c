package filestore

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	log "github.com/sirupsen/logrus"
)

var openFileReader = readOnlyFileReader

type reader interface {
	ReadBytes(delimiter byte) ([]byte, error)
	Close() error
}

type fileReader struct {
	*bufio.Reader
	file *os.File
}

func (r *fileReader) Close() error {
	return r.file.Close()
}

func readOnlyFileReader(directory string, id string) (reader, error) {
	f, err := os.OpenFile(getFilePath(directory, id), os.O_RDONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &fileReader{Reader: bufio.NewReader(f), file: f}, nil
}

func readLine(r reader) ([]byte, bool, error) {
	bytes, err := r.ReadBytes('\n')
	eof := err == io.EOF

	if err != nil && !eof {
		return nil, false, err
	}

	return bytes, !eof, nil
}

func closeReader(r reader) {
	if err := r.Close(); err != nil {
		log.WithError(err).Error("Error while closing file reader")
	}
}

func fromPoint(p point) sim.Cell {
	return sim.Cell{
		X: p.X,
		Y: p.Y,
	}
}

func fromFrameRecord(record frameRecord) *controller.Frame {
	cells := []sim.Cell{}
	for _, p := range record.Cells {
		cells = append(cells, fromPoint(p))
	}

	var food *sim.Cell
	if record.Food != nil {
		c := fromPoint(*record.Food)
		food = &c
	}

	return &controller.Frame{
		Turn:    record.Turn,
		Cells:   cells,
		Heading: sim.Direction(record.Heading),
		Food:    food,
		Round:   sim.RoundState(record.Round),
		Outcome: sim.MoveOutcome(record.Outcome),
		Cause:   sim.CollisionCause(record.Cause),
		Grew:    record.Grew,
	}
}

func fromGameInfo(info gameInfo) *controller.Game {
	// Archived games always read back stopped, a loaded archive is not
	// being advanced by anyone.
	return &controller.Game{
		ID:           info.ID,
		Width:        info.Width,
		Height:       info.Height,
		Status:       controller.GameStatusStopped,
		Seed:         info.Seed,
		TickInterval: info.TickInterval,
		MaxTurns:     info.MaxTurns,
	}
}

// ReadGameInfo loads the header of an archive file. The header must decode,
// an archive without a readable first line is no use.
func ReadGameInfo(directory string, id string) (*controller.Game, error) {
	r, err := openFileReader(directory, id)
	if err != nil {
		return nil, err
	}
	defer closeReader(r)

	line, _, err := readLine(r)
	if err != nil {
		return nil, err
	}

	info := gameInfo{}
	if err := json.Unmarshal(line, &info); err != nil {
		return nil, err
	}
	return fromGameInfo(info), nil
}

// ReadGameFrames loads every frame of an archive file, header excluded.
// Lines that fail to decode are skipped, a torn tail write should not take
// the whole archive with it.
func ReadGameFrames(directory string, id string) ([]*controller.Frame, error) {
	r, err := openFileReader(directory, id)
	if err != nil {
		return nil, err
	}
	defer closeReader(r)

	// The first line is the game info header, frames start after it.
	_, more, err := readLine(r)
	if err != nil {
		return nil, err
	}

	frames := []*controller.Frame{}
	for more {
		var line []byte
		line, more, err = readLine(r)
		if err != nil {
			return frames, err
		}

		record := frameRecord{}
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		frames = append(frames, fromFrameRecord(record))
	}

	return frames, nil
}
