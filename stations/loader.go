package stations

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"bikedest/domain/business/directory"
)

var (
	ErrMissingStationColumn = errors.New("missing station column")
	ErrInvalidStationsFile  = errors.New("invalid stations file")
)

// column aliases, the first one is the preferred name
var (
	nameColumns     = []string{"station_name", "name"}
	latitudeColumns = []string{"station_lat", "lat", "latitude"}
	longitudeColumn = []string{"station_lon", "lon", "longitude"}
	capacityColumns = []string{"station_capacity", "capacity", "capacidad"}
)

// stationJSON value of the processed stations file, the key of the object is the station name
type stationJSON struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
	Capacity  *float64 `json:"capacity"`
}

// stationJSONInput accepts the capacity under both keys written by the station exports
type stationJSONInput struct {
	stationJSON
	Capacidad *float64 `json:"capacidad"`
}

func (si stationJSONInput) capacity() *float64 {
	if si.Capacity != nil {
		return si.Capacity
	}
	return si.Capacidad
}

// Load reads the station records of a file. Files with .json extension are read as the processed
// stations map, every other file as CSV
func Load(path string) ([]directory.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening stations file: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadJSON(file)
	}
	return ReadCSV(file)
}

// LoadDirectory builds a directory from the stations file. If the file cannot be read the directory
// is empty: geography features fall back to their defaults, so the condition is only logged
func LoadDirectory(path string, cfg directory.Config) *directory.Directory {
	if path == "" {
		log.Warn("[stations][method: LoadDirectory][status: WARNING] no stations source configured, using an empty directory")
		return directory.Build(nil, cfg)
	}

	records, err := Load(path)
	if err != nil {
		log.Warnf("[stations][method: LoadDirectory][status: WARNING] stations source %s unavailable, using an empty directory: %s", path, err.Error())
		return directory.Build(nil, cfg)
	}

	dir := directory.Build(records, cfg)
	log.Infof("[stations][method: LoadDirectory][status: OK] %d stations loaded from %d records of %s", dir.Len(), len(records), path)
	return dir
}

// ReadCSV reads station records from a CSV with a header row. Column names are matched with their aliases
func ReadCSV(reader io.Reader) ([]directory.Record, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: error reading header: %s", ErrInvalidStationsFile, err.Error())
	}

	columns := make(map[string]int, len(header))
	for idx, column := range header {
		columns[normalizeHeader(column)] = idx
	}

	nameIdx, err := findColumn(columns, nameColumns)
	if err != nil {
		return nil, err
	}
	latIdx, err := findColumn(columns, latitudeColumns)
	if err != nil {
		return nil, err
	}
	lonIdx, err := findColumn(columns, longitudeColumn)
	if err != nil {
		return nil, err
	}
	capacityIdx, err := findColumn(columns, capacityColumns)
	if err != nil {
		capacityIdx = -1
	}

	var records []directory.Record
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: error reading row: %s", ErrInvalidStationsFile, err.Error())
		}

		records = append(records, directory.Record{
			Name:      field(row, nameIdx),
			Latitude:  parseFloat(field(row, latIdx)),
			Longitude: parseFloat(field(row, lonIdx)),
			Capacity:  parseCapacity(field(row, capacityIdx)),
		})
	}

	return records, nil
}

// ReadJSON reads the processed stations map. The order of the stations in the file is kept
func ReadJSON(reader io.Reader) ([]directory.Record, error) {
	decoder := json.NewDecoder(reader)

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStationsFile, err.Error())
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected an object of stations", ErrInvalidStationsFile)
	}

	var records []directory.Record
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStationsFile, err.Error())
		}
		name, _ := token.(string)

		var data stationJSONInput
		if err = decoder.Decode(&data); err != nil {
			return nil, fmt.Errorf("%w: station %q: %s", ErrInvalidStationsFile, name, err.Error())
		}

		record := directory.Record{
			Name:      name,
			Latitude:  data.Latitude,
			Longitude: data.Longitude,
		}
		if capacity := data.capacity(); capacity != nil {
			record.Capacity = toCapacity(*capacity)
		}
		records = append(records, record)
	}

	return records, nil
}

func findColumn(columns map[string]int, aliases []string) (int, error) {
	for _, alias := range aliases {
		if idx, ok := columns[alias]; ok {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("%w: expected one of %v", ErrMissingStationColumn, aliases)
}

func normalizeHeader(column string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(column, "\ufeff")))
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) {
		log.Debugf("[stations][method: ReadCSV] invalid coordinate %q", value)
		return nil
	}
	return &parsed
}

// parseCapacity accepts integer and float notation, "20.0" is a capacity of 20
func parseCapacity(value string) *int {
	parsed := parseFloat(value)
	if parsed == nil {
		return nil
	}
	return toCapacity(*parsed)
}

func toCapacity(value float64) *int {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	capacity := int(value)
	return &capacity
}
