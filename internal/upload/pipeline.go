package upload

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultContentType is used when a file does not declare one.
const DefaultContentType = "image/jpeg"

// File is one image to upload.
type File struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Pipeline runs presign, transfer and publish for each file.
type Pipeline struct {
	broker Broker
	http   *http.Client
	log    *log.Entry
}

// NewPipeline creates a pipeline. httpClient performs the raw PUT.
func NewPipeline(broker Broker, httpClient *http.Client) *Pipeline {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Pipeline{
		broker: broker,
		http:   httpClient,
		log:    log.WithField("component", "upload"),
	}
}

// ObjectName builds {part}_{part}_..._{unixMillis}.jpg. Slashes and
// whitespace inside parts become dashes.
func ObjectName(at time.Time, parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), "-")
		p = strings.ReplaceAll(p, "/", "-")
		clean = append(clean, p)
	}
	clean = append(clean, strconv.FormatInt(at.UnixMilli(), 10))
	return strings.Join(clean, "_") + ".jpg"
}

// Run uploads one file and returns its public URL. No URL is returned
// unless all three steps succeeded.
func (p *Pipeline) Run(ctx context.Context, file File, folder string) (string, error) {
	slots, err := p.broker.Presign(ctx, []string{file.Filename}, folder)
	if err != nil {
		return "", &PresignError{Filename: file.Filename, Err: err}
	}
	if len(slots) == 0 || slots[0].UploadURL == "" || slots[0].Key == "" {
		return "", &PresignError{Filename: file.Filename}
	}
	slot := slots[0]

	if err := p.transfer(ctx, slot, file); err != nil {
		return "", err
	}

	res, err := p.broker.Publish(ctx, []string{slot.Key})
	if err != nil {
		return "", &PublishError{Key: slot.Key, Err: err}
	}
	if reason, failed := res.FailureFor(slot.Key); failed {
		return "", &PublishError{Key: slot.Key, Reason: reason}
	}

	p.log.WithFields(log.Fields{"key": slot.Key, "folder": folder, "bytes": len(file.Data)}).Debug("image published")
	return slot.PublicURL, nil
}

func (p *Pipeline) transfer(ctx context.Context, slot Slot, file File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.UploadURL, bytes.NewReader(file.Data))
	if err != nil {
		return &TransferError{Filename: file.Filename, Err: fmt.Errorf("create request: %w", err)}
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(file.Data))

	resp, err := p.http.Do(req)
	if err != nil {
		return &TransferError{Filename: file.Filename, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransferError{Filename: file.Filename, StatusCode: resp.StatusCode}
	}
	return nil
}

// RunBatch uploads files concurrently. The returned URLs line up with files;
// a failed file leaves an empty string and is reported in a *BatchError.
func (p *Pipeline) RunBatch(ctx context.Context, files []File, folder string) ([]string, error) {
	urls := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i], errs[i] = p.Run(ctx, files[i], folder)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			batchErr := &BatchError{Errs: errs}
			p.log.WithField("failed", batchErr.Failed()).WithField("total", len(files)).Warn("batch upload incomplete")
			return urls, batchErr
		}
	}
	return urls, nil
}
