package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// repairNotes are sample descriptions a mechanic might type.
var repairNotes = []string{
	"เปลี่ยนผ้าเบรกหน้า",
	"ตรวจเช็คระบบไฟ เปลี่ยนฟิวส์",
	"เปลี่ยนน้ำมันเครื่องและไส้กรอง",
	"ซ่อมท่อลมรั่ว",
	"ปรับตั้งศูนย์ล้อ",
}

var tabs = []string{"pending", "in_progress"}

// client is one simulated mechanic session against the API.
type client struct {
	baseURL string
	http    *http.Client
	token   string
	user    string
}

func newClient(baseURL string) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, e.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) login(ctx context.Context, username, password string) error {
	data, err := json.Marshal(map[string]string{"username": username, "password": password, "device_id": "simulator"})
	if err != nil {
		return err
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", bytes.NewReader(data), "application/json", &resp); err != nil {
		return err
	}
	c.token = resp.Token
	c.user = username
	return nil
}

type listItem struct {
	MaintenanceRequestCode string `json:"maintenance_request_code"`
}

type listPage struct {
	Items      []listItem `json:"items"`
	TotalCount int        `json:"total_count"`
	Cached     bool       `json:"cached"`
}

func (c *client) list(ctx context.Context, tab string) (*listPage, error) {
	q := url.Values{"tab": {tab}}
	var page listPage
	if err := c.do(ctx, http.MethodGet, "/repairs?"+q.Encode(), nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type detail struct {
	Tasks struct {
		TasksByType map[string][]struct {
			ID int `json:"id"`
		} `json:"tasks_by_type"`
	} `json:"tasks"`
}

// taskIDs flattens the task groups of a request.
func (d *detail) taskIDs() []int {
	var ids []int
	for _, group := range d.Tasks.TasksByType {
		for _, t := range group {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func (c *client) detail(ctx context.Context, code string) (*detail, error) {
	var d detail
	if err := c.do(ctx, http.MethodGet, "/repairs/"+url.PathEscape(code), nil, "", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// fakePhoto renders a small solid-colour JPEG.
func fakePhoto(rng *rand.Rand) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	fill := color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// saveTaskForm builds the multipart body for saving one task. photo goes in image_1.
func saveTaskForm(description string, photo []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("description", description); err != nil {
		return nil, "", err
	}
	if len(photo) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image_1"; filename="photo.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(photo); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *client) saveTask(ctx context.Context, code string, taskID int, description string, photo []byte) error {
	body, contentType, err := saveTaskForm(description, photo)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/repairs/%s/tasks/%d", url.PathEscape(code), taskID)
	return c.do(ctx, http.MethodPost, path, body, contentType, nil)
}

// step browses one tab and records work on a random task of a random request.
func step(ctx context.Context, c *client, rng *rand.Rand) error {
	tab := tabs[rng.Intn(len(tabs))]
	page, err := c.list(ctx, tab)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user":   c.user,
		"tab":    tab,
		"total":  page.TotalCount,
		"cached": page.Cached,
	}).Info("Listed repairs")
	if len(page.Items) == 0 {
		return nil
	}

	code := page.Items[rng.Intn(len(page.Items))].MaintenanceRequestCode
	d, err := c.detail(ctx, code)
	if err != nil {
		return err
	}
	ids := d.taskIDs()
	if len(ids) == 0 {
		return nil
	}
	taskID := ids[rng.Intn(len(ids))]
	note := repairNotes[rng.Intn(len(repairNotes))]
	photo, err := fakePhoto(rng)
	if err != nil {
		return err
	}
	if err := c.saveTask(ctx, code, taskID, note, photo); err != nil {
		return err
	}
	log.WithFields(log.Fields{"user": c.user, "code": code, "task_id": taskID}).Info("Saved repair task")
	return nil
}

func simulateMechanic(ctx context.Context, c *client, interval time.Duration, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := step(ctx, c, rng); err != nil {
				log.WithError(err).WithField("user", c.user).Warn("Simulation step failed")
			}
		}
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			return n
		}
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	username := os.Getenv("SIM_USERNAME")
	password := os.Getenv("SIM_PASSWORD")
	sessions := envInt("SIM_SESSIONS", 3)
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 5)) * time.Second

	log.WithFields(log.Fields{
		"sessions": sessions,
		"api_url":  apiURL,
		"interval": interval,
	}).Info("Starting mechanic simulation")

	ctx := context.Background()
	started := 0
	for i := 0; i < sessions; i++ {
		c := newClient(apiURL)
		if err := c.login(ctx, username, password); err != nil {
			log.WithError(err).Error("Login failed")
			continue
		}
		go simulateMechanic(ctx, c, interval, time.Now().UnixNano()+int64(i))
		started++
	}

	if started == 0 {
		log.Error("No sessions started. Check SIM_USERNAME, SIM_PASSWORD and API_BASE_URL. Exiting.")
		return
	}
	log.WithField("sessions", started).Info("Mechanic simulation started")
	select {}
}
