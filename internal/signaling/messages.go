package signaling

import (
	"encoding/json"

	"github.com/telecare/telecare/internal/domain/healthrecord"
)

// Envelope is the wire frame for every socket message, both directions:
// a named event plus an event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound events.
const (
	EventDoctorLogin           = "doctor_login"
	EventPatientRequest        = "patient_request"
	EventAcceptRequest         = "accept_request"
	EventOffer                 = "offer"
	EventAnswer                = "answer"
	EventCandidate             = "candidate"
	EventConsultationCompleted = "consultation_completed"
)

// Outbound events.
const (
	EventConnected          = "connected"
	EventNoDoctorsAvailable = "no_doctors_available"
	EventNewPatientRequest  = "new_patient_request"
	EventRequestAccepted    = "request_accepted"
	EventRequestTaken       = "request_taken"
)

// ConnectedPayload tells a freshly upgraded client its socket id so
// peers can address it in signaling messages.
type ConnectedPayload struct {
	SocketID string `json:"socketId"`
}

type DoctorLoginPayload struct {
	DoctorID string `json:"doctorId"`
}

// PatientRequestPayload is the patient profile snapshot broadcast to
// doctors when a live consultation is requested.
type PatientRequestPayload struct {
	PatientName    string              `json:"patientName"`
	Symptoms       []string            `json:"symptoms"`
	ConsultationID string              `json:"consultationId"`
	Vitals         healthrecord.Vitals `json:"vitals"`
	Age            int                 `json:"age"`
	Gender         string              `json:"gender"`
}

type NewPatientRequestPayload struct {
	PatientRequestPayload
	SocketID string `json:"socketId"`
}

type AcceptRequestPayload struct {
	PatientSocketID string `json:"patientSocketId"`
	DoctorID        string `json:"doctorId"`
	ConsultationID  string `json:"consultationId"`
}

type RequestAcceptedPayload struct {
	DoctorID       string `json:"doctorId"`
	DoctorSocketID string `json:"doctorSocketId"`
}

type RequestTakenPayload struct {
	PatientSocketID string `json:"patientSocketId"`
}

// SignalPayload carries WebRTC offer/answer/candidate messages. SDP and
// candidate bodies are opaque to the relay and forwarded verbatim; the
// relay strips the target and stamps the sender so the receiver can
// address replies.
type SignalPayload struct {
	Target    string          `json:"target,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Sender    string          `json:"sender,omitempty"`
}

type CompletedPayload struct {
	Target       string `json:"target,omitempty"`
	Notes        string `json:"notes"`
	Prescription string `json:"prescription"`
}
