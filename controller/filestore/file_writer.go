package filestore

import (
	"encoding/json"
	"os"

	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
)

var openFileWriter = appendOnlyFileWriter

type writer interface {
	WriteString(s string) (int, error)
	Close() error
}

// Archive records. The file format is decoupled from the store types so
// old archives stay readable when the store types move on. The first line
// of a file is a gameInfo header, every following line is one frameRecord.
type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type gameInfo struct {
	ID           string `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Seed         int64  `json:"seed"`
	TickInterval int64  `json:"tickInterval"`
	MaxTurns     int64  `json:"maxTurns"`
}

type frameRecord struct {
	Turn    int64   `json:"turn"`
	Cells   []point `json:"cells"`
	Heading string  `json:"heading"`
	Food    *point  `json:"food,omitempty"`
	Round   string  `json:"round"`
	Outcome string  `json:"outcome,omitempty"`
	Cause   string  `json:"cause,omitempty"`
	Grew    bool    `json:"grew,omitempty"`
}

func requireSaveDir(directory string) error {
	return os.MkdirAll(directory, 0775)
}

func writeLine(w writer, data interface{}) error {
	j, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = w.WriteString(string(j) + "\n")
	return err
}

func toPoint(c sim.Cell) point {
	return point{
		X: c.X,
		Y: c.Y,
	}
}

func toFrameRecord(f *controller.Frame) frameRecord {
	cells := []point{}
	for _, c := range f.Cells {
		cells = append(cells, toPoint(c))
	}

	var food *point
	if f.Food != nil {
		p := toPoint(*f.Food)
		food = &p
	}

	return frameRecord{
		Turn:    f.Turn,
		Cells:   cells,
		Heading: string(f.Heading),
		Food:    food,
		Round:   string(f.Round),
		Outcome: string(f.Outcome),
		Cause:   string(f.Cause),
		Grew:    f.Grew,
	}
}

func toGameInfo(game *controller.Game) gameInfo {
	return gameInfo{
		ID:           game.ID,
		Width:        game.Width,
		Height:       game.Height,
		Seed:         game.Seed,
		TickInterval: game.TickInterval,
		MaxTurns:     game.MaxTurns,
	}
}

func writeFrame(w writer, f *controller.Frame) error {
	record := toFrameRecord(f)
	return writeLine(w, &record)
}

func writeGameInfo(w writer, game *controller.Game) error {
	info := toGameInfo(game)
	return writeLine(w, &info)
}

func appendOnlyFileWriter(directory string, id string, mustCreate bool) (writer, error) {
	if err := requireSaveDir(directory); err != nil {
		return nil, err
	}

	path := getFilePath(directory, id)
	flags := os.O_APPEND | os.O_WRONLY | os.O_CREATE
	if mustCreate {
		flags |= os.O_EXCL
	}
	return os.OpenFile(path, flags, 0644)
}
