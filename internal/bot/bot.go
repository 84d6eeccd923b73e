package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/lookoutside/internal/observability"
	"github.com/kjstillabower/lookoutside/internal/service"
	"github.com/kjstillabower/lookoutside/internal/traffic"
)

// ErrUnknownCommand is returned by Handle when the text does not start with a known command.
var ErrUnknownCommand = errors.New("unknown command")

// Message targets.
const (
	TargetChannel = "channel"
	TargetUser    = "user"
)

// Request is one chat message addressed to the bot.
type Request struct {
	User    string
	Text    string
	Private bool
}

// Message is one line the chat bridge should send.
type Message struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

// Service is the command surface the dispatcher drives.
type Service interface {
	Weather(ctx context.Context, user, query string) (service.Reply, error)
	Forecast(ctx context.Context, user, query string) (service.Reply, error)
	AirQuality(ctx context.Context, user, query string) (service.Reply, error)
	SetLocation(ctx context.Context, user, query string) (service.Reply, error)
	SetPreference(ctx context.Context, user, key, value string) (service.Reply, error)
}

type command struct {
	name string
	run  func(d *Dispatcher, ctx context.Context, req Request, args string) ([]Message, error)
}

var commands = map[string]command{
	"weather":     {name: "weather", run: (*Dispatcher).weather},
	"wea":         {name: "weather", run: (*Dispatcher).weather},
	"forecast":    {name: "forecast", run: (*Dispatcher).forecast},
	"aqi":         {name: "aqi", run: (*Dispatcher).airQuality},
	"setlocation": {name: "setlocation", run: (*Dispatcher).setLocation},
	"weatherset":  {name: "weatherset", run: (*Dispatcher).weatherSet},
	"wset":        {name: "weatherset", run: (*Dispatcher).weatherSet},
}

// Dispatcher parses chat text into commands and turns service results and errors into
// chat messages.
type Dispatcher struct {
	svc    Service
	logger *zap.Logger
	// prefix is shown in help text, e.g. ".".
	prefix string
}

func NewDispatcher(svc Service, logger *zap.Logger, prefix string) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "."
	}
	return &Dispatcher{svc: svc, logger: logger, prefix: prefix}
}

// Commands lists the accepted command names including aliases.
func Commands() []string {
	return []string{"weather", "wea", "forecast", "aqi", "setlocation", "weatherset", "wset"}
}

// Handle runs the command in req.Text. Command failures become user-facing messages;
// only an unrecognised command returns an error.
func (d *Dispatcher) Handle(ctx context.Context, req Request) ([]Message, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, d.logger)

	name, args := splitCommand(req.Text)
	cmd, ok := commands[name]
	if !ok {
		observability.RecordCommand("unknown", outcomeUnknownCommand)
		return nil, ErrUnknownCommand
	}

	msgs, err := cmd.run(d, ctx, req, args)
	outcome := outcomeOK
	if err != nil {
		outcome = classify(err)
		msgs = []Message{d.reply(req, d.errorText(cmd.name, err))}
	}

	observability.RecordCommand(cmd.name, outcome)
	switch outcome {
	case outcomeUpstreamError, outcomeConfigError, outcomeInternalError:
		traffic.RecordError()
		logger.Warn("command failed",
			zap.String("command", cmd.name),
			zap.String("user", req.User),
			zap.String("outcome", outcome),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
	default:
		traffic.RecordSuccess()
		logger.Info("command handled",
			zap.String("command", cmd.name),
			zap.String("user", req.User),
			zap.String("outcome", outcome),
			zap.Duration("duration", time.Since(start)))
	}
	return msgs, nil
}

// splitCommand returns the lowercased command name without its "." or "!" prefix and the
// remaining argument text.
func splitCommand(text string) (name, args string) {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, ".!")
	name, args, _ = strings.Cut(text, " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}

// reply addresses text to wherever the command came from.
func (d *Dispatcher) reply(req Request, text string) Message {
	if req.Private {
		return Message{Target: TargetUser, Text: text}
	}
	return Message{Target: TargetChannel, Text: text}
}

func (d *Dispatcher) messages(req Request, r service.Reply) []Message {
	msgs := []Message{d.reply(req, r.Text)}
	for _, line := range r.Private {
		msgs = append(msgs, Message{Target: TargetUser, Text: line})
	}
	return msgs
}

func (d *Dispatcher) weather(ctx context.Context, req Request, args string) ([]Message, error) {
	r, err := d.svc.Weather(ctx, req.User, args)
	if err != nil {
		return nil, err
	}
	return d.messages(req, r), nil
}

func (d *Dispatcher) forecast(ctx context.Context, req Request, args string) ([]Message, error) {
	r, err := d.svc.Forecast(ctx, req.User, args)
	if err != nil {
		return nil, err
	}
	return d.messages(req, r), nil
}

func (d *Dispatcher) airQuality(ctx context.Context, req Request, args string) ([]Message, error) {
	r, err := d.svc.AirQuality(ctx, req.User, args)
	if err != nil {
		return nil, err
	}
	return d.messages(req, r), nil
}

func (d *Dispatcher) setLocation(ctx context.Context, req Request, args string) ([]Message, error) {
	r, err := d.svc.SetLocation(ctx, req.User, args)
	if err != nil {
		return nil, err
	}
	return d.messages(req, r), nil
}

func (d *Dispatcher) weatherSet(ctx context.Context, req Request, args string) ([]Message, error) {
	if !req.Private {
		return []Message{d.reply(req, "These commands must be sent in privmsg to avoid channel spam")}, nil
	}
	fields := strings.Fields(args)
	if len(fields) < 2 {
		help := d.weatherSetHelp()
		msgs := make([]Message, 0, len(help))
		for _, line := range help {
			msgs = append(msgs, d.reply(req, line))
		}
		return msgs, nil
	}
	r, err := d.svc.SetPreference(ctx, req.User, fields[0], fields[1])
	if err != nil {
		return nil, err
	}
	return d.messages(req, r), nil
}

func (d *Dispatcher) weatherSetHelp() []string {
	p := d.prefix
	return []string{
		"You can customize what weather info is displayed by msging me with the following " + p + "weatherset arguments:",
		"'" + p + "weatherset units [metric|imperial|both]'",
		"'" + p + "weatherset [condition|humidity|sunrise|wind|aqi] [true|false]'",
	}
}
