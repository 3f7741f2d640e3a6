package sheets

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"otter/internal/config"
	apperrors "otter/internal/errors"
)

// ErrNoCredentials is returned when the Sheets API has neither credentials nor an endpoint override
var ErrNoCredentials = stderrors.New("google sheets credentials not configured")

// SheetsSource reads ranges through the Google Sheets v4 API
type SheetsSource struct {
	service    *sheetsapi.Service
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewSheetsSource creates a Sheets API client from configuration.
// Credentials are taken from a service-account file, then an API key.
// With only an endpoint set the client is unauthenticated, which is how
// emulators and tests are reached.
func NewSheetsSource(ctx context.Context, cfg config.SheetsConfig, tracer trace.Tracer, logger *slog.Logger) (*SheetsSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer("otter")
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.Endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	default:
		return nil, ErrNoCredentials
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewSheetsError("failed to create sheets service", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &SheetsSource{
		service:    service,
		limiter:    rate.NewLimiter(limit, 1),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		tracer:     tracer,
		logger:     logger.With(slog.String("component", "sheets")),
	}, nil
}

// FetchRange implements Source. Rate-limited and retried on 429 and 5xx.
func (s *SheetsSource) FetchRange(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	ctx, span := s.tracer.Start(ctx, "sheets.FetchRange", trace.WithAttributes(
		attribute.String("sheets.spreadsheet_id", spreadsheetID),
		attribute.String("sheets.range", a1Range),
	))
	defer span.End()

	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limiter")
			return nil, apperrors.NewSheetsError("rate limiter wait aborted", err)
		}

		resp, err := s.get(ctx, spreadsheetID, a1Range)
		if err == nil {
			span.SetAttributes(attribute.Int("sheets.rows", len(resp.Values)))
			return convertValues(resp.Values), nil
		}

		if !retryable(err) || attempt >= s.maxRetries {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			return nil, apperrors.NewSheetsError("failed to fetch range", err).
				WithContext("spreadsheet_id", spreadsheetID).
				WithContext("range", a1Range).
				WithContext("attempts", attempt+1)
		}

		wait := s.backoff * time.Duration(attempt+1)
		s.logger.WarnContext(ctx, "sheets request failed, retrying",
			slog.String("range", a1Range),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, apperrors.NewSheetsError("fetch cancelled", ctx.Err())
		case <-time.After(wait):
		}
	}
}

func (s *SheetsSource) get(ctx context.Context, spreadsheetID, a1Range string) (*sheetsapi.ValueRange, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.service.Spreadsheets.Values.Get(spreadsheetID, a1Range).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
}

func retryable(err error) bool {
	var gerr *googleapi.Error
	if !stderrors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
}

func convertValues(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	return rows
}
