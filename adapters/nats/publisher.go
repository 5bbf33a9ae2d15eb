package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
)

const (
	defaultSubjectPrefix = "ventyd.entity"
	defaultStreamName    = "VENTYD_ENTITY"
	pluginName           = "nats-publisher"
)

type PublisherConfig struct {
	Connect        Connector    // Connect creates the underlying NATS connection. If nil, ConnectDefault() is used.
	Log            *slog.Logger // Log for diagnostics (optional)
	SubjectPrefix  string
	Separator      string // Separator between entity name and event suffix, default ":"
	StreamName     string
	StreamSubjects []string
}

// Publisher is a post-commit plugin that publishes every committed event to
// a JetStream stream. Subjects are
// "<prefix>.<entityName>.<entityId>.<eventSuffix>"; the event ID doubles as
// the JetStream message ID, so redelivered commits deduplicate server-side.
type Publisher struct {
	nc            *natsgo.Conn
	closeNc       closeFunc
	js            jetstream.JetStream
	stream        jetstream.Stream
	log           *slog.Logger
	subjectPrefix string
	separator     string
	streamName    string
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	nc, closeNatsCon, err := doConnect()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	streamName := strings.ToUpper(cfg.StreamName)
	if streamName == "" {
		streamName = defaultStreamName
	}

	subjectPrefix := cfg.SubjectPrefix
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}

	separator := cfg.Separator
	if separator == "" {
		separator = entity.DefaultSeparator
	}

	streamSubjects := cfg.StreamSubjects
	if len(streamSubjects) == 0 {
		streamSubjects = []string{fmt.Sprintf("%s.>", subjectPrefix)}
	}

	log = log.With(
		slog.String("plugin", pluginName),
		slog.String("stream", streamName),
		slog.String("subjectPrefix", subjectPrefix),
	)

	log.Debug("ensuring stream")

	stream, streamInfo, err := ensureStream(js, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: streamSubjects,
		FirstSeq: 1,
	})
	if err != nil {
		return nil, err
	}

	log.Info("ensured", slog.Any("stream", streamInfo))

	return &Publisher{
		nc:            nc,
		closeNc:       closeNatsCon,
		js:            js,
		stream:        stream,
		log:           log,
		subjectPrefix: subjectPrefix,
		separator:     separator,
		streamName:    streamName,
	}, nil
}

func (p *Publisher) Close() error {
	p.js.CleanupPublisher()
	p.closeNc()
	p.log.Debug("closed publisher")
	return nil
}

func (p *Publisher) Name() string { return pluginName }

func (p *Publisher) OnCommitted(ctx context.Context, c entity.Committed) error {
	for _, ev := range c.Events {
		if err := p.publish(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, ev entity.Event) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}

	subject := p.subjectFor(ev)
	msg := natsgo.NewMsg(subject)
	msg.Header.Set("x-event-name", ev.EventName)
	msg.Header.Set("x-entity-name", ev.EntityName)
	msg.Header.Set("x-entity-id", ev.EntityID)

	data, err := entity.EncodeEvent(ev)
	if err != nil {
		return err
	}
	msg.Data = data

	ack, err := p.js.PublishMsg(
		ctx,
		msg,
		jetstream.WithMsgID(ev.EventID),
	)
	if err != nil {
		return fmt.Errorf("publish to subject %s: %w", subject, err)
	}

	p.log.Debug(
		"published",
		slog.Group(
			"event",
			slog.String("id", ev.EventID),
			slog.String("name", ev.EventName),
		),
		slog.String("subject", subject),
		slog.Group(
			"ack",
			slog.Int64("seq", int64(ack.Sequence)),
			slog.Bool("dup", ack.Duplicate),
		),
	)
	return nil
}

func (p *Publisher) subjectFor(ev entity.Event) string {
	suffix := strings.TrimPrefix(ev.EventName, ev.EntityName+p.separator)
	return p.subjectPrefix + "." + ev.EntityName + "." + ev.EntityID + "." + suffix
}

func ensureStream(js jetstream.JetStream, cfg jetstream.StreamConfig) (s jetstream.Stream, si *jetstream.StreamInfo, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*natsgo.DefaultTimeout)
	defer cancel()

	s, err = js.CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	si, err = s.Info(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, si, nil
}

var _ entity.Plugin = (*Publisher)(nil)
