package filestore

import (
	"bufio"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/sim"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	*bufio.Reader
}

func (m *mockReader) Close() error {
	return nil
}

func newMockReader(text string) *mockReader {
	return &mockReader{
		Reader: bufio.NewReader(strings.NewReader(text)),
	}
}

type failReader struct{}

func (f *failReader) ReadBytes(delimiter byte) ([]byte, error) {
	return nil, errors.New("FAIL")
}

func (f *failReader) Close() error {
	return errors.New("FAIL")
}

func fileOpener(files map[string]string) func(string, string) (reader, error) {
	return func(directory, id string) (reader, error) {
		text, ok := files[id]
		if !ok {
			return nil, errors.New("file not found")
		}
		return newMockReader(text), nil
	}
}

func gameInfoTestJSON() string {
	info := gameInfo{
		ID:           "myid",
		Width:        10,
		Height:       12,
		Seed:         99,
		TickInterval: 150,
		MaxTurns:     1000,
	}

	infoJSON, _ := json.Marshal(info)
	return string(infoJSON) + "\n"
}

func framesTestJSON() string {
	f1 := frameRecord{
		Turn:    1,
		Cells:   []point{{1, 1}, {1, 2}},
		Heading: "down",
		Food:    &point{X: 6, Y: 6},
		Round:   "playing",
		Outcome: "continued",
	}

	f2 := frameRecord{
		Turn:    2,
		Cells:   []point{{1, 1}, {1, 2}},
		Heading: "down",
		Round:   "playing",
		Outcome: "collided",
		Cause:   "wall-collision",
	}

	j1, _ := json.Marshal(f1)
	j2, _ := json.Marshal(f2)

	return string(j1) + "\n" + string(j2) + "\n"
}

func TestReadGameFramesBadReader(t *testing.T) {
	openFileReader = func(directory, id string) (reader, error) {
		return &failReader{}, nil
	}
	_, err := ReadGameFrames("", "myid")

	require.NotNil(t, err)
}

func TestReadGameFramesOpenReaderError(t *testing.T) {
	openFileReader = func(directory, id string) (reader, error) {
		return nil, errors.New("fail")
	}
	_, err := ReadGameFrames("", "myid")

	require.NotNil(t, err)
}

func TestReadGameFramesWithoutHeader(t *testing.T) {
	j := framesTestJSON()

	openFileReader = fileOpener(map[string]string{
		"myid": j,
	})
	frames, _ := ReadGameFrames("", "myid")

	require.Len(t, frames, 1, "first frame is in header spot and should be ignored")
}

func TestReadGameFrames(t *testing.T) {
	j := gameInfoTestJSON() + framesTestJSON()

	openFileReader = fileOpener(map[string]string{
		"myid": j,
	})
	frames, _ := ReadGameFrames("", "myid")

	require.Len(t, frames, 2)
	require.Equal(t, int64(1), frames[0].Turn)
	require.Equal(t, int64(2), frames[1].Turn)
	require.Equal(t, sim.DirectionDown, frames[0].Heading)
	require.Equal(t, []sim.Cell{{X: 1, Y: 1}, {X: 1, Y: 2}}, frames[0].Cells)
	require.NotNil(t, frames[0].Food)
	require.Equal(t, sim.Cell{X: 6, Y: 6}, *frames[0].Food)
	require.Nil(t, frames[1].Food)
	require.Equal(t, sim.MoveOutcomeCollided, frames[1].Outcome)
	require.Equal(t, sim.CollisionCauseWall, frames[1].Cause)
}

func testGarbageEnding(t *testing.T, garbage string) {
	j := gameInfoTestJSON() + framesTestJSON() + garbage

	openFileReader = fileOpener(map[string]string{
		"myid": j,
	})
	frames, _ := ReadGameFrames("", "myid")

	require.Len(t, frames, 2, "3rd frame is invalid and should be ignored")
	require.Equal(t, int64(1), frames[0].Turn)
	require.Equal(t, int64(2), frames[1].Turn)
}

func TestReadGameFramesPlusGarbage(t *testing.T) {
	testGarbageEnding(t, "...")
	testGarbageEnding(t, "{")
	testGarbageEnding(t, "{ foo }")
}

func TestReadGameFramesGarbageAfterHeader(t *testing.T) {
	j := gameInfoTestJSON() + "\n\n{\n" + framesTestJSON()

	openFileReader = fileOpener(map[string]string{
		"myid": j,
	})
	frames, _ := ReadGameFrames("", "myid")

	require.Len(t, frames, 2, "garbage should be ignored")
	require.Equal(t, int64(1), frames[0].Turn)
	require.Equal(t, int64(2), frames[1].Turn)
}

func TestReadGameFramesEmpty(t *testing.T) {
	j := gameInfoTestJSON()

	openFileReader = fileOpener(map[string]string{
		"myid": j,
	})
	frames, _ := ReadGameFrames("", "myid")

	require.Len(t, frames, 0)
}

func TestReadGameFramesBlankFile(t *testing.T) {
	openFileReader = fileOpener(map[string]string{
		"myid": "",
	})
	frames, _ := ReadGameFrames("", "myid")

	require.Len(t, frames, 0)
}

func TestReadGameInfoOneLine(t *testing.T) {
	infoJSON := gameInfoTestJSON()

	openFileReader = fileOpener(map[string]string{
		"myid": infoJSON,
	})
	game, err := ReadGameInfo("", "myid")

	require.NoError(t, err)
	require.Equal(t, "myid", game.ID)
	require.Equal(t, 10, game.Width)
	require.Equal(t, 12, game.Height)
	require.Equal(t, int64(99), game.Seed)
	require.Equal(t, int64(1000), game.MaxTurns)
	require.Equal(t, controller.GameStatusStopped, game.Status)
}

func TestReadGameInfoManyLines(t *testing.T) {
	j := gameInfoTestJSON() + framesTestJSON()

	openFileReader = fileOpener(map[string]string{
		"myid": j,
	})
	game, err := ReadGameInfo("", "myid")

	require.NoError(t, err)
	require.Equal(t, "myid", game.ID)
}

func TestReadGameInfoManyLinesPlusGarbage(t *testing.T) {
	j := gameInfoTestJSON() + framesTestJSON() + "asdf"

	openFileReader = fileOpener(map[string]string{
		"myid": j,
	})
	game, err := ReadGameInfo("", "myid")

	require.NoError(t, err, "garbage data after last frame should not break anything")
	require.Equal(t, "myid", game.ID)
}

func TestReadGameInfoPlusGarbage(t *testing.T) {
	text := gameInfoTestJSON() + "\nfoo\nbar"

	openFileReader = fileOpener(map[string]string{
		"myid": text,
	})
	game, err := ReadGameInfo("", "myid")

	require.NoError(t, err, "garbage data after header should not break anything")
	require.Equal(t, "myid", game.ID)
}

func TestReadGameInfoCorruptJSON(t *testing.T) {
	text := "foo\nbar"

	openFileReader = fileOpener(map[string]string{
		"myid": text,
	})
	_, err := ReadGameInfo("", "myid")

	require.NotNil(t, err)
}

func TestReadGameInfoMissingFile(t *testing.T) {
	infoJSON := gameInfoTestJSON()

	openFileReader = fileOpener(map[string]string{
		"myid": infoJSON,
	})
	_, err := ReadGameInfo("", "wrongid")

	require.NotNil(t, err)
}
