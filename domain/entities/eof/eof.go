package eof

import "bikedest/domain/entities"

const EOFType = "EOF"

// EOFData marks the end of a stream of requests. Has the metadata attribute that all bus messages have.
// + Metadata: metadata added to the structure
type EOFData struct {
	Metadata entities.Metadata `json:"metadata"`
}

func NewEOF(stage string, eofMessage string) *EOFData {
	return &EOFData{
		Metadata: entities.NewMetadata("", EOFType, stage, eofMessage),
	}
}

func (eof EOFData) GetMetadata() entities.Metadata {
	return eof.Metadata
}

// IsEOF returns true if the metadata belongs to an EOF message
func IsEOF(metadata entities.Metadata) bool {
	return metadata.GetType() == EOFType
}
