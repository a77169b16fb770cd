package checkin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/checkin-geofence-service/internal/domain"
	"github.com/couchcryptid/checkin-geofence-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Request is a transport-neutral check-in attempt.
type Request struct {
	Method string
	Token  string
	Body   []byte
	// BodyErr is set when the transport failed to read the body.
	BodyErr error
}

// DecisionPublisher receives an event for every decision. Publish must not
// block on I/O; errors are logged and counted, never surfaced to callers.
type DecisionPublisher interface {
	Publish(ctx context.Context, event domain.DecisionEvent) error
}

// Settings is the immutable validation configuration.
type Settings struct {
	Secret       []byte
	RadiusMeters int
	Sites        []domain.Site
}

// Service orchestrates token verification and the geofence check. It is safe
// for concurrent use.
type Service struct {
	secret    []byte
	radius    int
	sites     []domain.Site
	clock     clockwork.Clock
	publisher DecisionPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service. Settings are copied. Pass a nil publisher to disable
// decision events.
func New(settings Settings, clock clockwork.Clock, publisher DecisionPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		secret:    append([]byte(nil), settings.Secret...),
		radius:    settings.RadiusMeters,
		sites:     append([]domain.Site(nil), settings.Sites...),
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// evaluation is a decision plus the request-scoped facts that led to it.
type evaluation struct {
	decision domain.Decision
	err      error
	expiry   time.Time
	coord    *domain.Coordinate
	distance float64
}

// Validate runs every check in order and returns the first failure, or the
// geofence verdict when all checks pass. It never panics on bad input and
// never returns an error; failures are carried in the decision.
func (s *Service) Validate(ctx context.Context, req Request) domain.Decision {
	start := s.clock.Now()
	ev := s.evaluate(req, start)

	s.metrics.ValidationDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.Decisions.WithLabelValues(ev.decision.Outcome(), metricReason(ev.decision)).Inc()
	if ev.coord != nil {
		s.metrics.NearestDistance.WithLabelValues(ev.decision.Site).Observe(ev.distance)
	}
	s.log(req, ev)
	s.publish(ctx, req, ev, start)

	return ev.decision
}

func (s *Service) evaluate(req Request, now time.Time) evaluation {
	if req.Token == "" {
		return reject(domain.ReasonMissingToken, nil)
	}

	expiry, err := domain.VerifyToken(req.Token, s.secret, now)
	if err != nil {
		return reject(domain.ReasonFor(err), err)
	}

	if req.Method != http.MethodPost {
		ev := reject(domain.ReasonUsePost, nil)
		ev.expiry = expiry
		return ev
	}

	ev := evaluation{expiry: expiry}

	if req.BodyErr != nil {
		ev.decision, ev.err = domain.Reject(domain.ReasonBadJSON), req.BodyErr
		return ev
	}
	body, err := domain.ParseBody(req.Body)
	if err != nil {
		ev.decision, ev.err = domain.Reject(domain.ReasonFor(err)), err
		return ev
	}

	coord, ok := body.Coordinate()
	if !ok {
		ev.decision = domain.Reject(domain.ReasonMissingCoords)
		return ev
	}

	result, err := domain.Evaluate(coord, s.sites, float64(s.radius))
	if err != nil {
		ev.decision, ev.err = domain.Reject(domain.ReasonServerError), err
		return ev
	}

	ev.coord = &coord
	ev.distance = result.DistanceMeters
	ev.decision = domain.Accept(result, s.radius)
	return ev
}

func reject(reason domain.Reason, err error) evaluation {
	return evaluation{decision: domain.Reject(reason), err: err}
}

func (s *Service) log(req Request, ev evaluation) {
	d := ev.decision
	switch {
	case d.Reason == domain.ReasonServerError:
		s.logger.Error("checkin validation failed", "method", req.Method, "error", ev.err)
	case d.Reason != "":
		attrs := []any{"reason", d.Reason, "method", req.Method}
		if ev.err != nil {
			attrs = append(attrs, "error", ev.err)
		}
		s.logger.Info("checkin rejected", attrs...)
	default:
		s.logger.Info("checkin evaluated",
			"site", d.Site,
			"distance_m", *d.DistanceMeters,
			"radius_m", s.radius,
			"within", d.OK,
		)
	}
}

func (s *Service) publish(ctx context.Context, req Request, ev evaluation, checkedAt time.Time) {
	if s.publisher == nil {
		return
	}

	event := domain.NewDecisionEvent(ev.decision, req.Method, checkedAt)
	event.TokenExpiresAt = ev.expiry
	if ev.coord != nil {
		lat, lng := ev.coord.Lat, ev.coord.Lng
		event.Lat, event.Lng = &lat, &lng
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish decision event failed", "error", err, "key", event.Key())
		return
	}
	s.metrics.EventsPublished.WithLabelValues("success").Inc()
}

// metricReason labels out-of-fence verdicts, which carry no wire reason.
func metricReason(d domain.Decision) string {
	switch {
	case d.Reason != "":
		return string(d.Reason)
	case !d.OK:
		return "outside_radius"
	default:
		return "none"
	}
}

// readinessChecker is implemented by publishers that can report broker health.
type readinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// CheckReadiness returns nil when the service can produce geofence verdicts
// and, if it has one, its publisher is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if len(s.sites) == 0 {
		return errors.New("no check-in sites configured")
	}
	if rc, ok := s.publisher.(readinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}
