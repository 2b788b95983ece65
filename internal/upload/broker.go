// Package upload moves images to public object storage through a
// presign, transfer, publish sequence.
package upload

import (
	"context"
	"net/http"
	"time"

	"github.com/ukydev/fleetfix/internal/api"
)

// Folders used by the app.
const (
	FolderRepairTasks           = "repair-tasks"
	FolderTruckPhotos           = "truck-photos"
	FolderInspectionFailedItems = "inspection-failed-items"
)

// Slot is a single-use presigned upload target.
type Slot struct {
	Filename  string `json:"filename"`
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

// KeyResult is the outcome for one key of a publish call.
type KeyResult struct {
	Key     string `json:"key"`
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PublishResult reports which keys were made public.
type PublishResult struct {
	Success      bool        `json:"success"`
	Successful   []KeyResult `json:"successful"`
	Failed       []KeyResult `json:"failed"`
	Total        int         `json:"total"`
	SuccessCount int         `json:"successCount"`
	FailedCount  int         `json:"failedCount"`
}

// FailureFor returns the failure reported for key, if any.
func (r *PublishResult) FailureFor(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, f := range r.Failed {
		if f.Key == key {
			return f.Error, true
		}
	}
	return "", false
}

// Broker issues presigned slots and publishes uploaded keys.
type Broker interface {
	// Presign returns one slot per filename, in request order.
	Presign(ctx context.Context, filenames []string, folder string) ([]Slot, error)
	Publish(ctx context.Context, keys []string) (*PublishResult, error)
}

// HTTPBroker uses the image API's presign and public-ACL endpoints.
type HTTPBroker struct {
	client *api.Client
}

// NewHTTPBroker creates a broker for the image API at baseURL.
func NewHTTPBroker(baseURL string, timeout time.Duration) *HTTPBroker {
	return &HTTPBroker{client: api.NewClient(baseURL, timeout)}
}

func (b *HTTPBroker) Presign(ctx context.Context, filenames []string, folder string) ([]Slot, error) {
	body := struct {
		Files  []string `json:"files"`
		Folder string   `json:"folder,omitempty"`
	}{Files: filenames, Folder: folder}

	var resp struct {
		Files []Slot `json:"files"`
		Count int    `json:"count"`
	}
	if err := b.client.Do(ctx, http.MethodPost, "/presign-upload-batch", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (b *HTTPBroker) Publish(ctx context.Context, keys []string) (*PublishResult, error) {
	body := map[string][]string{"keys": keys}
	var resp PublishResult
	if err := b.client.Do(ctx, http.MethodPost, "/set-public-acl-batch", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
