package entities

// Metadata this struct contains extra information about the data that travels through the message bus
// + RequestID: ID of the request the data belongs to
// + Type: this field helps us to recognize what type of data is
// + Stage: stage were the Metadata was constructed
// + Message: message with extra information
type Metadata struct {
	RequestID string `json:"request_id"`
	Type      string `json:"type"`
	Stage     string `json:"stage"`
	Message   string `json:"message"`
}

func NewMetadata(requestID string, dataType string, stage string, message string) Metadata {
	return Metadata{
		RequestID: requestID,
		Type:      dataType,
		Stage:     stage,
		Message:   message,
	}
}

func (m Metadata) GetRequestID() string {
	return m.RequestID
}

func (m Metadata) GetType() string {
	return m.Type
}

func (m Metadata) GetStage() string {
	return m.Stage
}

func (m Metadata) GetMessage() string {
	return m.Message
}
