package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dosewatch/internal/dose"
	"github.com/pkg/errors"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Medicine is the agent-side view of one medicine after the loose wire
// record has been validated and normalized at the fetch boundary.
type Medicine struct {
	ID            string
	Name          string
	ImageURL      string
	TotalQuantity *int
	Entries       []dose.Entry
}

// Projection derives the supply state for this medicine.
func (m Medicine) Projection() dose.Projection {
	return dose.Project(m.TotalQuantity, len(m.Entries))
}

// Client talks to the persistence API. Fetched records arrive in a loose
// shape, either a legacy top-level time/status pair or a times array, and
// are normalized exactly once here; the rest of the engine only ever sees
// dose.Entry values.
type Client struct {
	baseURL string
	http    httpDoer
}

// NewClient builds a client for baseURL, e.g. "http://localhost:8080/api".
// A nil doer falls back to http.DefaultClient: the poll cycle itself is
// the retry mechanism, so no request timeout is layered on top.
func NewClient(baseURL string, doer httpDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

type wireDoseTime struct {
	Time   string `json:"time"`
	Status string `json:"status"`
}

type wireMedicine struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	ImageURL      string         `json:"imageUrl"`
	TotalQuantity *int           `json:"totalQuantity"`
	Time          string         `json:"time"`
	Status        string         `json:"status"`
	Times         []wireDoseTime `json:"times"`
}

type medicinesResponse struct {
	Success   bool           `json:"success"`
	Error     string         `json:"error"`
	Medicines []wireMedicine `json:"medicines"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// FetchMedicines retrieves and normalizes the authoritative dose state
// for one patient.
func (c *Client) FetchMedicines(ctx context.Context, patientID string) ([]Medicine, error) {
	url := fmt.Sprintf("%s/medicines?patientId=%s", c.baseURL, patientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building medicines request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching medicines")
	}
	defer resp.Body.Close()

	var payload medicinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decoding medicines response")
	}
	if !payload.Success {
		return nil, errors.Errorf("medicines fetch rejected: %s", payload.Error)
	}

	medicines := make([]Medicine, 0, len(payload.Medicines))
	for _, wm := range payload.Medicines {
		med, err := normalize(wm)
		if err != nil {
			return nil, err
		}
		medicines = append(medicines, med)
	}

	return medicines, nil
}

// MarkTaken reports a dismissed dose for the given (medicine, time) pair.
func (c *Client) MarkTaken(ctx context.Context, medicineID, patientID string, t dose.TimeOfDay) error {
	return c.postStatus(ctx, "/mark-taken", medicineID, patientID, t)
}

// MarkMissed reports an elapsed dose window for the given pair.
func (c *Client) MarkMissed(ctx context.Context, medicineID, patientID string, t dose.TimeOfDay) error {
	return c.postStatus(ctx, "/mark-missed", medicineID, patientID, t)
}

func (c *Client) postStatus(ctx context.Context, path, medicineID, patientID string, t dose.TimeOfDay) error {
	body, err := json.Marshal(map[string]string{
		"medicineId": medicineID,
		"patientId":  patientID,
		"time":       t.String(),
	})
	if err != nil {
		return errors.Wrap(err, "encoding status request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "building %s request", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "posting %s", path)
	}
	defer resp.Body.Close()

	var payload statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return errors.Wrapf(err, "decoding %s response", path)
	}
	if !payload.Success {
		return errors.Errorf("%s rejected: %s", path, payload.Error)
	}

	return nil
}

// normalize turns a loose wire record into the canonical dose model. A
// times array wins over the legacy pair; a legacy record with no status
// defaults to pending, matching what old backends emitted.
func normalize(wm wireMedicine) (Medicine, error) {
	med := Medicine{
		ID:            wm.ID,
		Name:          wm.Name,
		ImageURL:      wm.ImageURL,
		TotalQuantity: wm.TotalQuantity,
	}

	raw := wm.Times
	if len(raw) == 0 {
		if wm.Time == "" {
			return Medicine{}, errors.Errorf("medicine %s carries no dose times", wm.ID)
		}
		raw = []wireDoseTime{{Time: wm.Time, Status: wm.Status}}
	}

	for _, wt := range raw {
		t, err := dose.ParseTimeOfDay(wt.Time)
		if err != nil {
			return Medicine{}, errors.Wrapf(err, "medicine %s", wm.ID)
		}

		status := dose.Status(wt.Status)
		if wt.Status == "" {
			status = dose.StatusPending
		}
		if !status.Valid() {
			return Medicine{}, errors.Errorf("medicine %s carries unknown status %q", wm.ID, wt.Status)
		}

		med.Entries = append(med.Entries, dose.Entry{Time: t, Status: status})
	}

	return med, nil
}
