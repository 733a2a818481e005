package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheuscscp/obrawiser/config"
	"github.com/matheuscscp/obrawiser/internal/lazy"
	"github.com/matheuscscp/obrawiser/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

type (
	// Appender appends one row after the last row of a range.
	Appender interface {
		Append(ctx context.Context, spreadsheetID, rng string, row []interface{}) error
	}

	// Service writes expense records to a spreadsheet.
	Service struct {
		conf     *config.Sheets
		appender *lazy.Value[Appender]
		location *time.Location
	}

	apiAppender struct {
		svc *sheetsapi.Service
	}
)

const valueInputOption = "USER_ENTERED"

var (
	// ErrMissingCredentials ...
	ErrMissingCredentials = errors.New("google sheets credentials missing")
)

// NewService returns a Service that connects with the service account of
// conf on the first AddRow.
func NewService(conf *config.Sheets) *Service {
	return NewServiceWithAppender(conf, lazy.New(func(ctx context.Context) (Appender, error) {
		return connect(conf)
	}))
}

// NewServiceWithAppender ...
func NewServiceWithAppender(conf *config.Sheets, appender *lazy.Value[Appender]) *Service {
	location, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		logrus.Warnf("error loading time zone '%s', using UTC: %v", conf.TimeZone, err)
		location = time.UTC
	}
	return &Service{
		conf:     conf,
		appender: appender,
		location: location,
	}
}

// Configured tells whether the credentials and the target spreadsheet are set.
func (s *Service) Configured() bool {
	return s.conf.ServiceAccountEmail != "" && s.conf.PrivateKey != "" && s.conf.SpreadsheetID != ""
}

// AddRow appends the record to the spreadsheet. Missing credentials and API
// errors are logged, never returned.
func (s *Service) AddRow(ctx context.Context, record *models.ExpenseRecord) {
	if err := s.addRow(ctx, record); err != nil {
		if errors.Is(err, ErrMissingCredentials) {
			logrus.Warn("Google Sheets credentials missing, skipping row")
			return
		}
		logrus.WithError(err).Error("error adding row to sheet")
		return
	}
	logrus.WithField("item", record.Item).Info("row added to sheet")
}

func (s *Service) addRow(ctx context.Context, record *models.ExpenseRecord) error {
	if !s.Configured() {
		return ErrMissingCredentials
	}
	appender, err := s.appender.Get(ctx)
	if err != nil {
		return fmt.Errorf("error authorizing google sheets client: %w", err)
	}
	row := record.Row(time.Now().In(s.location))
	if err := appender.Append(ctx, s.conf.SpreadsheetID, s.conf.Range, row); err != nil {
		return fmt.Errorf("error appending row: %w", err)
	}
	return nil
}

// connect authorizes once with the service account JWT flow. The token
// source refreshes itself for the lifetime of the process, so it is bound to
// the background context and not to the request that triggered it.
func connect(conf *config.Sheets) (Appender, error) {
	ctx := context.Background()
	jwtConf := &jwt.Config{
		Email:      conf.ServiceAccountEmail,
		PrivateKey: []byte(conf.PrivateKey),
		Scopes:     []string{sheetsapi.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	tokenSource := jwtConf.TokenSource(ctx)
	if _, err := tokenSource.Token(); err != nil {
		return nil, fmt.Errorf("error authorizing service account '%s': %w", conf.ServiceAccountEmail, err)
	}
	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("error creating sheets client: %w", err)
	}
	return &apiAppender{svc}, nil
}

func (a *apiAppender) Append(ctx context.Context, spreadsheetID, rng string, row []interface{}) error {
	_, err := a.svc.Spreadsheets.Values.
		Append(spreadsheetID, rng, &sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	return err
}
