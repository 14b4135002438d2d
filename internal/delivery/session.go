package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/nahidhasan98/checklist-notifier/internal/logger"
)

// SessionOptions configures the WhatsApp session
type SessionOptions struct {
	DBDriver   string
	DBDSN      string
	LogLevel   string
	DeviceName string
	QRWriter   io.Writer
}

// Backoff controls reconnection after an unexpected disconnect
type Backoff struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Factor      float64
}

// Next returns the delay following d
func (b Backoff) Next(d time.Duration) time.Duration {
	next := time.Duration(float64(d) * b.Factor)
	if next > b.Max {
		return b.Max
	}
	return next
}

// DefaultBackoff is used by new sessions
var DefaultBackoff = Backoff{
	MaxAttempts: 10,
	Initial:     5 * time.Second,
	Max:         5 * time.Minute,
	Factor:      1.5,
}

const (
	qrTimeout     = 60 * time.Second
	qrMaxAttempts = 5
	qrRetryDelay  = 5 * time.Second
)

// Session is a linked-device WhatsApp connection backed by a SQL session store
type Session struct {
	client *whatsmeow.Client
	log    *logger.Logger
	qrOut  io.Writer

	mu         sync.RWMutex
	connected  bool
	backoff    Backoff
	stopRejoin context.CancelFunc
}

// OpenSession loads the device from the session store. Call Start to connect.
func OpenSession(ctx context.Context, opts SessionOptions, log *logger.Logger) (*Session, error) {
	container, err := sqlstore.New(ctx, opts.DBDriver, opts.DBDSN, waLog.Stdout("Database", opts.LogLevel, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	name := opts.DeviceName
	if name == "" {
		name = "Checklist Notifier"
	}
	store.SetOSInfo(name, [3]uint32{0, 1, 0})
	device.Platform = name

	qrOut := opts.QRWriter
	if qrOut == nil {
		qrOut = os.Stdout
	}

	s := &Session{
		client:  whatsmeow.NewClient(device, waLog.Stdout("Client", opts.LogLevel, true)),
		log:     log.With("component", "whatsapp"),
		qrOut:   qrOut,
		backoff: DefaultBackoff,
	}
	s.client.AddEventHandler(s.onEvent)

	return s, nil
}

// Start connects with the stored session, or begins QR pairing in the
// background when the device has never been linked
func (s *Session) Start(ctx context.Context) error {
	if s.client.Store.ID == nil {
		s.log.Info("No linked device found, starting QR pairing")
		go s.pair(ctx)
		return nil
	}

	s.log.Info("Linked device found, connecting")
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

// Close stops reconnection and disconnects
func (s *Session) Close() {
	s.mu.Lock()
	if s.stopRejoin != nil {
		s.stopRejoin()
		s.stopRejoin = nil
	}
	s.connected = false
	s.mu.Unlock()

	s.client.Disconnect()
	s.log.Info("Disconnected from WhatsApp")
}

// Connected reports whether messages can be sent right now
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.client.IsConnected() && s.client.Store.ID != nil
}

// SendText sends a plain-text message to a user or group JID
func (s *Session) SendText(ctx context.Context, to, text string) error {
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid recipient %s: %w", to, err)
	}

	if _, err := s.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (s *Session) onEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		s.mu.Lock()
		s.connected = true
		if s.stopRejoin != nil {
			s.stopRejoin()
			s.stopRejoin = nil
		}
		s.mu.Unlock()
		s.log.Info("WhatsApp connected")

	case *events.Disconnected:
		s.mu.Lock()
		s.connected = false
		idle := s.stopRejoin == nil
		s.mu.Unlock()
		s.log.Warn("WhatsApp disconnected")
		if idle {
			go s.rejoin()
		}

	case *events.LoggedOut:
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
		s.log.Warnf("WhatsApp session logged out: %v", v.Reason)

	case *events.StreamError:
		s.log.Errorf("WhatsApp stream error: %v", v)
	}
}

// rejoin reconnects with exponential backoff until connected or out of attempts
func (s *Session) rejoin() {
	s.mu.Lock()
	if s.connected || s.stopRejoin != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopRejoin = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.stopRejoin = nil
		s.mu.Unlock()
		cancel()
	}()

	delay := s.backoff.Initial
	for attempt := 1; attempt <= s.backoff.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if s.client.IsConnected() {
			s.mu.Lock()
			s.connected = true
			s.mu.Unlock()
			return
		}

		s.log.Infof("Reconnecting to WhatsApp (%d/%d)", attempt, s.backoff.MaxAttempts)
		if err := s.client.Connect(); err != nil {
			s.log.Errorf("Reconnect attempt %d failed: %v", attempt, err)
			delay = s.backoff.Next(delay)
			continue
		}
		return
	}

	s.log.Error("Giving up reconnecting to WhatsApp", nil)
}

// pair links the device by QR code, retrying with a fresh code on expiry
func (s *Session) pair(ctx context.Context) {
	for attempt := 1; attempt <= qrMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		if attempt > 1 {
			s.log.Infof("Requesting a new QR code (%d/%d)", attempt, qrMaxAttempts)
			time.Sleep(qrRetryDelay)
		}

		linked, err := s.pairOnce(ctx)
		if err != nil {
			s.log.Error("QR pairing attempt failed", err)
			continue
		}
		if linked {
			s.log.Info("WhatsApp device linked")
			return
		}
		if ctx.Err() != nil {
			return
		}
	}

	s.log.Error("Failed to link WhatsApp device", nil)
}

func (s *Session) pairOnce(ctx context.Context) (bool, error) {
	qrCtx, cancel := context.WithTimeout(ctx, qrTimeout)
	defer cancel()

	codes, err := s.client.GetQRChannel(qrCtx)
	if err != nil {
		return false, fmt.Errorf("failed to get QR channel: %w", err)
	}
	if !s.client.IsConnected() {
		if err := s.client.Connect(); err != nil {
			return false, fmt.Errorf("failed to connect: %w", err)
		}
	}

	for {
		select {
		case <-qrCtx.Done():
			return false, nil
		case item, ok := <-codes:
			if !ok {
				return false, nil
			}
			switch item.Event {
			case "code":
				s.renderQR(item.Code)
			case "success":
				return true, nil
			case "timeout":
				s.log.Warn("QR code expired")
				return false, nil
			default:
				s.log.Infof("Pairing event: %s", item.Event)
			}
		}
	}
}

func (s *Session) renderQR(code string) {
	rule := strings.Repeat("=", 64)
	fmt.Fprintf(s.qrOut, "\n%s\nScan with WhatsApp > Settings > Linked Devices\n%s\n", rule, rule)
	qrterminal.GenerateWithConfig(code, qrterminal.Config{
		Level:      qrterminal.M,
		Writer:     s.qrOut,
		HalfBlocks: true,
		QuietZone:  1,
	})
	fmt.Fprintf(s.qrOut, "%s\nThe code expires in %s\n%s\n\n", rule, qrTimeout, rule)
}
