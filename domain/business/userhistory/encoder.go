package userhistory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var ErrInvalidEncoderTable = errors.New("invalid destination code table")

// Encoder turns a destination name into the categorical code the classifier was trained with.
// Lookup reports false for names outside the table
type Encoder interface {
	Lookup(name string) (int, bool)
}

// LabelEncoder name to code table. Codes are the position of the name in the sorted list of classes.
// Unknown names get code 0
type LabelEncoder struct {
	classes []string
	codes   map[string]int
}

// NewLabelEncoder fits an encoder with the unique names sorted alphabetically
func NewLabelEncoder(names []string) *LabelEncoder {
	unique := make(map[string]bool, len(names))
	var classes []string
	for _, name := range names {
		if unique[name] {
			continue
		}
		unique[name] = true
		classes = append(classes, name)
	}
	sort.Strings(classes)
	return fromClasses(classes)
}

func fromClasses(classes []string) *LabelEncoder {
	codes := make(map[string]int, len(classes))
	for idx, class := range classes {
		codes[class] = idx
	}
	return &LabelEncoder{classes: classes, codes: codes}
}

// LoadLabelEncoder reads a pre-fit table. Two JSON formats are accepted: an array with the classes
// in code order, or an object from name to code
func LoadLabelEncoder(reader io.Reader) (*LabelEncoder, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading destination codes: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidEncoderTable)
	}

	if data[0] == '[' {
		var classes []string
		if err = json.Unmarshal(data, &classes); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEncoderTable, err.Error())
		}
		return fromClasses(classes), nil
	}

	var codes map[string]int
	if err = json.Unmarshal(data, &codes); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoderTable, err.Error())
	}

	classes := make([]string, 0, len(codes))
	for name := range codes {
		classes = append(classes, name)
	}
	sort.Slice(classes, func(i, j int) bool {
		return codes[classes[i]] < codes[classes[j]]
	})

	return &LabelEncoder{classes: classes, codes: codes}, nil
}

func (le *LabelEncoder) Encode(name string) int {
	code, _ := le.Lookup(name)
	return code
}

// Lookup returns the code of the name and whether the name is a known class
func (le *LabelEncoder) Lookup(name string) (int, bool) {
	if le == nil {
		return 0, false
	}
	code, ok := le.codes[strings.TrimSpace(name)]
	return code, ok
}

// Classes returns the known names in code order
func (le *LabelEncoder) Classes() []string {
	classes := make([]string, len(le.classes))
	copy(classes, le.classes)
	return classes
}

func (le *LabelEncoder) Len() int {
	return len(le.classes)
}
