package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/erksrn/internal/config"
	"github.com/san-kum/erksrn/internal/physics"
	"github.com/san-kum/erksrn/internal/population"
)

const (
	metadataFile   = "metadata.json"
	statesFile     = "states.csv"
	checkpointFile = "checkpoint.json"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string              `json:"id"`
	Parent    string              `json:"parent,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Seed      uint64              `json:"seed"`
	Dt        float64             `json:"dt"`
	Steps     uint64              `json:"steps"`
	EndTime   float64             `json:"end_time"`
	Cells     int                 `json:"cells"`
	Mode      string              `json:"mode"`
	Solver    string              `json:"solver"`
	Params    config.ParamsConfig `json:"params"`
}

// Run is everything written for one simulation: its metadata, the recorded
// trajectory and the checkpoint it ended on.
type Run struct {
	Meta       RunMetadata
	Trajectory *population.Trajectory
	Checkpoint *population.Checkpoint
}

func (s *Store) Save(run Run) (string, error) {
	runID := run.Meta.ID
	if runID == "" {
		runID = fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := run.Meta
	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if run.Checkpoint != nil {
		if err := writeJSON(filepath.Join(runDir, checkpointFile), run.Checkpoint); err != nil {
			return "", err
		}
	}

	if run.Trajectory != nil {
		if err := writeStates(filepath.Join(runDir, statesFile), run.Trajectory); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// stateHeader is time, cell id, then one column per model variable named
// after the variable in snake case.
func stateHeader() []string {
	header := []string{"time", "cell"}
	for _, name := range (&physics.ErkPropulsion{}).VariableNames() {
		header = append(header, strings.ReplaceAll(strings.ToLower(name), " ", "_"))
	}
	return header
}

func writeStates(path string, tr *population.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(stateHeader()); err != nil {
		return err
	}
	for _, smp := range tr.Samples {
		row := []string{
			strconv.FormatFloat(smp.Time, 'g', -1, 64),
			strconv.FormatUint(smp.CellID, 10),
			strconv.FormatFloat(smp.Theta, 'g', -1, 64),
			strconv.FormatFloat(smp.Signal, 'g', -1, 64),
			strconv.FormatFloat(smp.TargetArea, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadCheckpoint(runID string) (*population.Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, checkpointFile))
	if err != nil {
		return nil, err
	}

	var cp population.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", runID, err)
	}
	return &cp, nil
}

func (s *Store) LoadStates(runID string) ([]population.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []population.Sample{}, nil
	}
	header := stateHeader()
	if !slices.Equal(records[0], header) {
		return nil, fmt.Errorf("states header %v, want %v", records[0], header)
	}

	samples := make([]population.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("states row %d: want %d fields, got %d", i+1, len(header), len(record))
		}
		var smp population.Sample
		var perr error
		parse := func(s string) float64 {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil && perr == nil {
				perr = err
			}
			return v
		}
		smp.Time = parse(record[0])
		smp.Theta = parse(record[2])
		smp.Signal = parse(record[3])
		smp.TargetArea = parse(record[4])
		id, err := strconv.ParseUint(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("states row %d: %w", i+1, err)
		}
		if perr != nil {
			return nil, fmt.Errorf("states row %d: %w", i+1, perr)
		}
		smp.CellID = id
		samples = append(samples, smp)
	}

	return samples, nil
}
