package stations

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"bikedest/domain/business/directory"
)

// WriteJSON writes the directory as the processed stations map, name to coordinates and capacity.
// Stations are written in directory order
func WriteJSON(writer io.Writer, dir *directory.Directory) error {
	buffer := bufio.NewWriter(writer)

	if _, err := buffer.WriteString("{\n"); err != nil {
		return err
	}

	stations := dir.Stations()
	for idx, s := range stations {
		name, err := json.Marshal(s.Name)
		if err != nil {
			return fmt.Errorf("error marshalling station name %q: %w", s.Name, err)
		}

		capacity := float64(s.Capacity)
		value, err := json.Marshal(stationJSON{Latitude: &s.Latitude, Longitude: &s.Longitude, Capacity: &capacity})
		if err != nil {
			return fmt.Errorf("error marshalling station %q: %w", s.Name, err)
		}

		separator := ",\n"
		if idx == len(stations)-1 {
			separator = "\n"
		}
		if _, err = fmt.Fprintf(buffer, "  %s: %s%s", name, value, separator); err != nil {
			return err
		}
	}

	if _, err := buffer.WriteString("}\n"); err != nil {
		return err
	}
	return buffer.Flush()
}
