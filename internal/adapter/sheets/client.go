// Package sheets implements the record store on a Google Sheets worksheet.
//
// One worksheet holds the whole record set: row 1 is a fixed header, data
// starts at row 2. Lookup by day is a linear scan of column A, which is fine
// at habit-tracking scale (a few hundred rows). Upsert is read-then-write
// with no conflict detection: concurrent writers race and the last write
// wins. Network and auth failures surface to the caller unchanged; there is
// no retry and no offline queue.
package sheets

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	baseURL        = "https://sheets.googleapis.com/v4/spreadsheets"
	sheetsScope    = "https://www.googleapis.com/auth/spreadsheets"
	valueOption    = "USER_ENTERED"
	requestTimeout = 30 * time.Second
)

// Store implements domain.RecordStore against the Sheets values API.
type Store struct {
	http          *resty.Client
	apiBase       string
	spreadsheetID string
	worksheet     string
	sheetID       int64
	logger        *zap.Logger
}

// New builds a Store from a service account key. The token source refreshes
// access tokens on demand; no request is made until Init.
func New(serviceAccountJSON []byte, spreadsheetID, worksheet string, logger *zap.Logger) (*Store, error) {
	jwt, err := google.JWTConfigFromJSON(serviceAccountJSON, sheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	ts := jwt.TokenSource(context.Background())

	client := resty.New().
		SetBaseURL(baseURL+"/"+url.PathEscape(spreadsheetID)).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return authorize(req, ts)
		})

	return &Store{
		http:          client,
		apiBase:       baseURL,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		logger:        logger,
	}, nil
}

func authorize(req *resty.Request, ts oauth2.TokenSource) error {
	token, err := ts.Token()
	if err != nil {
		return fmt.Errorf("sheets auth: %w", err)
	}
	req.SetAuthToken(token.AccessToken)
	return nil
}

// Close releases nothing; the HTTP client holds no persistent resources.
func (s *Store) Close() error { return nil }

// valuesResponse is the values API payload for reads.
type valuesResponse struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

type spreadsheetMeta struct {
	Sheets []struct {
		Properties struct {
			SheetID int64  `json:"sheetId"`
			Title   string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

func (s *Store) getValues(ctx context.Context, cellRange string) ([][]any, error) {
	var out valuesResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/values/" + url.PathEscape(s.worksheet+"!"+cellRange))
	if err != nil {
		return nil, fmt.Errorf("sheets read %s: %w", cellRange, err)
	}
	if resp.IsError() {
		return nil, apiError("read", cellRange, resp)
	}
	return out.Values, nil
}

func (s *Store) updateValues(ctx context.Context, cellRange string, rows [][]any) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", valueOption).
		SetBody(map[string]any{"values": rows}).
		Put("/values/" + url.PathEscape(s.worksheet+"!"+cellRange))
	if err != nil {
		return fmt.Errorf("sheets update %s: %w", cellRange, err)
	}
	if resp.IsError() {
		return apiError("update", cellRange, resp)
	}
	return nil
}

func (s *Store) appendValues(ctx context.Context, row []any) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", valueOption).
		SetBody(map[string]any{"values": [][]any{row}}).
		Post("/values/" + url.PathEscape(s.worksheet+"!A1") + ":append")
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	if resp.IsError() {
		return apiError("append", "A1", resp)
	}
	return nil
}

func (s *Store) batchUpdate(ctx context.Context, requests []map[string]any) error {
	// absolute URL: the ":batchUpdate" suffix attaches to the spreadsheet
	// path segment itself, not a segment below it
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"requests": requests}).
		Post(s.documentURL() + ":batchUpdate")
	if err != nil {
		return fmt.Errorf("sheets batchUpdate: %w", err)
	}
	if resp.IsError() {
		return apiError("batchUpdate", "", resp)
	}
	return nil
}

func (s *Store) documentURL() string {
	return s.apiBase + "/" + url.PathEscape(s.spreadsheetID)
}

func (s *Store) metadata(ctx context.Context) (*spreadsheetMeta, error) {
	var out spreadsheetMeta
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "sheets.properties").
		SetResult(&out).
		Get(s.documentURL())
	if err != nil {
		return nil, fmt.Errorf("sheets metadata: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("metadata", "", resp)
	}
	return &out, nil
}

func apiError(op, cellRange string, resp *resty.Response) error {
	if cellRange != "" {
		return fmt.Errorf("sheets %s %s: %s: %s", op, cellRange, resp.Status(), resp.String())
	}
	return fmt.Errorf("sheets %s: %s: %s", op, resp.Status(), resp.String())
}
