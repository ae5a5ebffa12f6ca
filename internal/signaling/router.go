package signaling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telecare/telecare/pkg/metrics"
)

// ConsultationStore is the durable lifecycle collaborator the router
// notifies when a doctor claims a request. Failures are logged and do
// not interrupt the live session.
type ConsultationStore interface {
	MarkAccepted(ctx context.Context, id uuid.UUID, doctorID uuid.UUID) error
}

const storeTimeout = 5 * time.Second

type handlerFunc func(c *Client, data json.RawMessage)

// Router dispatches inbound socket events to their handlers. Each
// connection's read pump calls HandleMessage sequentially, so messages
// from one connection are handled in send order; cross-connection races
// (notably two doctors accepting the same request) are resolved by the
// matcher's locked transition.
type Router struct {
	hub       *Hub
	presence  *Presence
	matcher   *Matcher
	store     ConsultationStore
	collector *metrics.Collector
	log       *zap.Logger

	handlers map[string]handlerFunc
}

func NewRouter(hub *Hub, presence *Presence, matcher *Matcher, store ConsultationStore, collector *metrics.Collector, log *zap.Logger) *Router {
	r := &Router{
		hub:       hub,
		presence:  presence,
		matcher:   matcher,
		store:     store,
		collector: collector,
		log:       log,
	}

	r.handlers = map[string]handlerFunc{
		EventDoctorLogin:           r.handleDoctorLogin,
		EventPatientRequest:        r.handlePatientRequest,
		EventAcceptRequest:         r.handleAcceptRequest,
		EventOffer:                 r.relaySignal(EventOffer),
		EventAnswer:                r.relaySignal(EventAnswer),
		EventCandidate:             r.relaySignal(EventCandidate),
		EventConsultationCompleted: r.handleConsultationCompleted,
	}

	return r
}

// HandleMessage decodes one inbound frame and dispatches it. Malformed
// frames and unknown events are ignored.
func (r *Router) HandleMessage(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	handler, ok := r.handlers[env.Event]
	if !ok {
		return
	}
	handler(c, env.Data)
}

// HandleDisconnect cleans up all per-connection state: presence entry,
// tracked requests, and the hub registration.
func (r *Router) HandleDisconnect(c *Client) {
	r.presence.Unregister(c.ID)
	r.collector.DoctorsOnline.Set(float64(r.presence.Size()))
	r.matcher.DropByPatient(c.ID)
	r.hub.Unregister(c)

	r.log.Info("socket disconnected", zap.String("socket_id", c.ID))
}

func (r *Router) handleDoctorLogin(c *Client, data json.RawMessage) {
	var p DoctorLoginPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	r.presence.Register(c.ID)
	r.collector.DoctorsOnline.Set(float64(r.presence.Size()))

	r.log.Info("doctor online",
		zap.String("doctor_id", p.DoctorID),
		zap.String("socket_id", c.ID),
		zap.Int("doctors_online", r.presence.Size()),
	)
}

func (r *Router) handlePatientRequest(c *Client, data json.RawMessage) {
	var p PatientRequestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	if r.presence.IsEmpty() {
		r.hub.SendTo(c.ID, EventNoDoctorsAvailable, nil)
		r.collector.ConsultRequestsTotal.WithLabelValues("no_doctors").Inc()
		r.log.Info("no doctors available", zap.String("socket_id", c.ID))
		return
	}

	r.matcher.Track(p.ConsultationID, c.ID)
	r.hub.BroadcastDoctors(EventNewPatientRequest, NewPatientRequestPayload{
		PatientRequestPayload: p,
		SocketID:              c.ID,
	})
	r.collector.ConsultRequestsTotal.WithLabelValues("broadcast").Inc()

	r.log.Info("patient request broadcast",
		zap.String("socket_id", c.ID),
		zap.String("consultation_id", p.ConsultationID),
		zap.Int("doctors_online", r.presence.Size()),
	)
}

func (r *Router) handleAcceptRequest(c *Client, data json.RawMessage) {
	var p AcceptRequestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	// First accept wins; a losing accept is a benign race, not an
	// error, so the late doctor gets nothing beyond the request_taken
	// retraction already on its way.
	if !r.matcher.TryAccept(p.ConsultationID, p.PatientSocketID) {
		r.collector.AcceptRaceLostTotal.Inc()
		r.log.Debug("accept lost race",
			zap.String("consultation_id", p.ConsultationID),
			zap.String("doctor_socket_id", c.ID),
		)
		return
	}

	r.markAccepted(p)

	r.hub.SendTo(p.PatientSocketID, EventRequestAccepted, RequestAcceptedPayload{
		DoctorID:       p.DoctorID,
		DoctorSocketID: c.ID,
	})
	r.hub.BroadcastDoctors(EventRequestTaken, RequestTakenPayload{
		PatientSocketID: p.PatientSocketID,
	})

	r.log.Info("consultation accepted",
		zap.String("consultation_id", p.ConsultationID),
		zap.String("doctor_id", p.DoctorID),
		zap.String("patient_socket_id", p.PatientSocketID),
	)
}

// markAccepted records the acceptance durably. The live session does
// not depend on it: failures are logged and swallowed.
func (r *Router) markAccepted(p AcceptRequestPayload) {
	consultationID, err := uuid.Parse(p.ConsultationID)
	if err != nil {
		r.log.Warn("accept carried unparseable consultation id", zap.String("consultation_id", p.ConsultationID))
		return
	}
	doctorID, err := uuid.Parse(p.DoctorID)
	if err != nil {
		r.log.Warn("accept carried unparseable doctor id", zap.String("doctor_id", p.DoctorID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := r.store.MarkAccepted(ctx, consultationID, doctorID); err != nil {
		r.log.Error("failed to persist consultation acceptance",
			zap.String("consultation_id", p.ConsultationID),
			zap.Error(err),
		)
	}
}

// relaySignal forwards offer/answer/candidate payloads verbatim to the
// target connection, stamped with the sender's socket id. No buffering,
// no retry: a disconnected target just drops the message.
func (r *Router) relaySignal(event string) handlerFunc {
	return func(c *Client, data json.RawMessage) {
		var p SignalPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}

		target := p.Target
		p.Target = ""
		p.Sender = c.ID

		if r.hub.SendTo(target, event, p) {
			r.collector.SignalRelayedTotal.WithLabelValues(event).Inc()
		} else {
			r.collector.SignalDroppedTotal.Inc()
		}
	}
}

func (r *Router) handleConsultationCompleted(c *Client, data json.RawMessage) {
	var p CompletedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	target := p.Target
	p.Target = ""

	r.hub.SendTo(target, EventConsultationCompleted, p)

	r.log.Info("consultation handoff delivered",
		zap.String("from", c.ID),
		zap.String("to", target),
	)
}
