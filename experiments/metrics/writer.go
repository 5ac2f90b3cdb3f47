package metrics

import (
	"chessclock/timeman"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type AgentConfig struct {
	ID      int
	Options timeman.Options
}

type GameRecord struct {
	ID    int
	White int // AgentConfig.ID
	Black int // AgentConfig.ID
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

type Writer struct {
	baseDir string
}

func NewWriter(root, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "min_thinking_time", "move_overhead", "slow_mover", "ponder",
		"easy_percent_off1", "easy_percent_off2", "time_factor_percent"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		o := config.Options
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(o.MinThinkingTime),
			strconv.Itoa(o.MoveOverhead),
			strconv.Itoa(o.SlowMover),
			strconv.FormatBool(o.Ponder),
			strconv.Itoa(o.EasyPercentOff1),
			strconv.Itoa(o.EasyPercentOff2),
			strconv.Itoa(o.TimeFactorPercent),
		})
	}
	return w.write("agent_configs.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "white", "black", "time_control", "winner", "flagged",
		"start_time", "end_time", "duration", "total_moves"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.White),
			strconv.Itoa(record.Black),
			record.TimeControl,
			record.Winner,
			record.Flagged,
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
		})
	}
	return w.write("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "clock_before", "clock_after", "optimum", "maximum",
		"available", "elapsed", "depth", "nodes", "stopped_by", "iterations", "max_instability"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			record.Player,
			strconv.Itoa(record.ClockBefore),
			strconv.Itoa(record.ClockAfter),
			strconv.Itoa(record.Optimum),
			strconv.Itoa(record.Maximum),
			strconv.Itoa(record.Available),
			strconv.Itoa(record.Elapsed),
			strconv.Itoa(record.Depth),
			strconv.FormatInt(record.Nodes, 10),
			record.StoppedBy,
			strconv.Itoa(record.Iterations),
			strconv.FormatFloat(record.MaxInstability, 'f', 4, 64),
		})
	}
	return w.write("move_records.csv", header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}
