package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"bikedest/domain/business/directory"
	"bikedest/domain/business/riders"
	"bikedest/stations"
)

// ExportStations builds the directory of the stations source and writes it as the processed JSON map
func ExportStations(sourcePath string, outputPath string, cfg directory.Config) (int, error) {
	records, err := stations.Load(sourcePath)
	if err != nil {
		return 0, err
	}
	dir := directory.Build(records, cfg)

	output, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("error creating %s: %w", outputPath, err)
	}
	defer output.Close()

	if err = stations.WriteJSON(output, dir); err != nil {
		return 0, err
	}

	log.Infof("[client][method: ExportStations][status: OK] %d records of %s exported as %d stations", len(records), sourcePath, dir.Len())
	return dir.Len(), nil
}

// ExportRiders aggregates a JSON-lines log of completed trips into the profiles of the limit most
// active riders and writes them as a catalogue
func ExportRiders(tripsPath string, outputPath string, limit int) (int, error) {
	input, err := os.Open(tripsPath)
	if err != nil {
		return 0, fmt.Errorf("error opening trips file: %w", err)
	}
	defer input.Close()

	completedTrips, err := ReadCompletedTrips(input)
	if err != nil {
		return 0, err
	}
	catalogue := riders.Aggregate(completedTrips, limit)

	output, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("error creating %s: %w", outputPath, err)
	}
	defer output.Close()

	if err = riders.WriteCatalogue(output, catalogue); err != nil {
		return 0, err
	}

	log.Infof("[client][method: ExportRiders][status: OK] %d trips aggregated into %d rider profiles", len(completedTrips), catalogue.Len())
	return catalogue.Len(), nil
}

// ReadCompletedTrips reads one completed trip per line. Invalid lines are skipped
func ReadCompletedTrips(reader io.Reader) ([]riders.CompletedTrip, error) {
	var completedTrips []riders.CompletedTrip

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var completed riders.CompletedTrip
		if err := json.Unmarshal([]byte(line), &completed); err != nil {
			log.Warnf("[client][method: ReadCompletedTrips][status: WARNING] line %d skipped: %s", lineNumber, err.Error())
			continue
		}
		completedTrips = append(completedTrips, completed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading completed trips: %w", err)
	}
	return completedTrips, nil
}
