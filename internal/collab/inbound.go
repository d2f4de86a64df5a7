package collab

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"poser-sync/internal/metrics"
	"poser-sync/internal/wire"
)

// Receive processes one inbound payload from sender. Payloads that are not
// poser messages, are malformed, or come from a sender without permission
// over the subject are dropped whole.
func (s *Synchronizer) Receive(ctx context.Context, sender uuid.UUID, payload string) {
	msg, err := wire.Parse(payload)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, wire.ErrTooLong) {
			reason = "too_long"
		}
		if !errors.Is(err, wire.ErrNotPoserMessage) {
			metrics.MessagesDropped.WithLabelValues(reason).Inc()
		}
		s.log.Debug().Err(err).Str("sender", sender.String()).Msg("inbound dropped")
		return
	}

	subject := msg.SubjectOr(sender)
	aboutSender := subject == sender
	aboutMe := subject == s.opts.Self
	if !aboutSender && !(aboutMe && s.State(sender).CanPoseMe()) {
		metrics.MessagesDropped.WithLabelValues("permission").Inc()
		s.log.Warn().Str("sender", sender.String()).Str("subject", subject.String()).Str("kind", msg.Kind).Msg("sender may not pose subject")
		return
	}

	switch msg.Kind {
	case wire.KindBody:
		s.receiveBody(subject, msg)
	case wire.KindPoses:
		s.receivePoses(subject, msg)
	case wire.KindStop:
		s.poser.StopPosing(subject)
		s.setState(subject, PermEnded, "remote")
	case wire.KindPerm:
		if !aboutSender {
			metrics.MessagesDropped.WithLabelValues("permission").Inc()
			return
		}
		s.receivePerm(ctx, sender, msg)
	default:
		metrics.MessagesDropped.WithLabelValues("unknown_kind").Inc()
		s.log.Debug().Str("kind", msg.Kind).Msg("unknown message kind")
		return
	}
	metrics.MessagesReceived.WithLabelValues(msg.Kind).Inc()
}

func (s *Synchronizer) receiveBody(subject uuid.UUID, msg wire.Message) {
	tokens, skipped := wire.DecodeBody(msg)
	if skipped > 0 {
		metrics.TokensSkipped.Add(float64(skipped))
		s.log.Debug().Int("skipped", skipped).Msg("malformed joint tokens")
	}
	if !s.poser.EnsurePosing(subject) {
		return
	}
	s.poser.LoadJointTokens(subject, tokens)
}

func (s *Synchronizer) receivePoses(subject uuid.UUID, msg wire.Message) {
	tuples, skipped := wire.DecodePoses(msg)
	if skipped > 0 {
		metrics.TokensSkipped.Add(float64(skipped))
	}
	if !s.poser.EnsurePosing(subject) {
		return
	}
	if s.poser.LoadPoseTuples(subject, tuples) {
		delete(s.reloads, subject)
		return
	}
	s.reloads[subject] = &reload{tuples: tuples}
	s.log.Debug().Str("character", subject.String()).Msg("pose list pending assets")
}

func (s *Synchronizer) receivePerm(ctx context.Context, sender uuid.UUID, msg wire.Message) {
	n, ok := wire.DecodePerm(msg)
	if !ok || !Permission(n).Valid() {
		metrics.MessagesDropped.WithLabelValues("malformed").Inc()
		return
	}
	next, reply := Receive(s.State(sender), Permission(n))
	s.setState(sender, next, "remote")
	if reply {
		s.send(ctx, sender, wire.KindPerm, wire.EncodePerm(int(PermIAskedThem)))
	}
}
