package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/listcache"
	"github.com/ukydev/fleetfix/internal/listview"
	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/notify"
	"github.com/ukydev/fleetfix/internal/upload"
)

// Flows shown on the repair list.
var DefaultFlows = []string{"แจ้งซ่อม", "ขอเปลี่ยนยาง"}

const (
	DefaultQueryLimit   = 200
	DefaultWindowDays   = 7
	autocompleteLimit   = 20
	dateLayout          = "2006-01-02"
	repairImageFilePart = "task"
)

// RepairOptions tune the repair list.
type RepairOptions struct {
	QueryLimit int
	PageSize   int
	WindowDays int
}

// RepairService lists maintenance requests and records repair work on them.
type RepairService struct {
	api      MaintenanceAPI
	cache    *listcache.Cache
	roster   Roster
	uploader Uploader
	notifier notify.Notifier
	opts     RepairOptions
	now      clock
	log      *log.Entry
}

// NewRepairService creates a repair service. notifier may be nil.
func NewRepairService(maintenance MaintenanceAPI, cache *listcache.Cache, roster Roster, uploader Uploader, notifier notify.Notifier, opts RepairOptions) *RepairService {
	if opts.QueryLimit <= 0 {
		opts.QueryLimit = DefaultQueryLimit
	}
	if opts.PageSize <= 0 {
		opts.PageSize = listview.DefaultPageSize
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &RepairService{
		api:      maintenance,
		cache:    cache,
		roster:   roster,
		uploader: uploader,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		log:      log.WithField("component", "repairs"),
	}
}

// ListRequest selects a page of the repair list. Filters carries only the
// user-chosen filters; flow and mechanic identity come from the actor.
type ListRequest struct {
	Filters models.FilterSet
	Tab     models.Tab
	Order   listview.SortOrder
	Page    int
}

// ListResult is one page plus how it was served.
type ListResult struct {
	listview.Page
	Cached  bool             `json:"cached"`
	Filters models.FilterSet `json:"filters"`
}

// FilterFor builds the full query filter for an actor.
func (s *RepairService) FilterFor(actor Actor, user models.FilterSet) models.FilterSet {
	f := user
	f.Flows = append([]string(nil), DefaultFlows...)
	f.GetAll = false
	f.MechanicNames = nil
	if s.roster.IsMaster(actor.Username) {
		f.GetAll = true
	} else {
		f.MechanicNames = s.roster.MechanicNames(actor.Username)
	}
	if !user.HasUserFilters() {
		// UTC calendar dates
		today := s.now().UTC()
		f.DateStart = today.AddDate(0, 0, -s.opts.WindowDays).Format(dateLayout)
		f.DateEnd = today.Format(dateLayout)
	}
	return f.Normalize()
}

// List returns one page of the repair list, served from cache when fresh.
// A failed fetch returns the error and leaves cached lists untouched.
func (s *RepairService) List(ctx context.Context, actor Actor, req ListRequest) (*ListResult, error) {
	filter := s.FilterFor(actor, req.Filters)
	all, hit, err := s.cache.GetOrFetch(ctx, filter, s.fetch)
	if err != nil {
		s.log.WithError(err).WithField("user", actor.Username).Error("repair list fetch failed")
		return nil, err
	}
	page := listview.Build(all, listview.Query{
		Tab:      req.Tab,
		Order:    req.Order,
		Page:     req.Page,
		PageSize: s.opts.PageSize,
	})
	return &ListResult{Page: page, Cached: hit, Filters: filter}, nil
}

// Refresh drops the cached list for the actor's filter and fetches it again.
func (s *RepairService) Refresh(ctx context.Context, actor Actor, req ListRequest) (*ListResult, error) {
	filter := s.FilterFor(actor, req.Filters)
	if err := s.cache.Invalidate(ctx, filter); err != nil {
		s.log.WithError(err).Warn("cache invalidate failed")
	}
	return s.List(ctx, actor, req)
}

func (s *RepairService) fetch(ctx context.Context, filter models.FilterSet) ([]models.MaintenanceRequest, error) {
	resp, err := s.api.Query(ctx, api.QueryRequest{
		FilterSet: filter,
		Limit:     s.opts.QueryLimit,
		Offset:    0,
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []models.MaintenanceRequest{}, nil
	}
	return resp.Data, nil
}

// Autocomplete suggests customers and plants for the list filters.
func (s *RepairService) Autocomplete(ctx context.Context, term string) (*models.CustomerPlantAutocomplete, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return &models.CustomerPlantAutocomplete{}, nil
	}
	return s.api.Autocomplete(ctx, term, autocompleteLimit)
}

// Detail is a maintenance request's tasks with their repair records.
type Detail struct {
	Code    string                         `json:"code"`
	Tasks   *models.MaintenanceTasks       `json:"tasks"`
	Records *models.RepairRecordsByRequest `json:"records"`
}

// Detail loads tasks and records concurrently.
func (s *RepairService) Detail(ctx context.Context, code string) (*Detail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	d := &Detail{Code: code}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := s.api.Tasks(gctx, code)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		d.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		records, err := s.api.Records(gctx, code)
		if err != nil {
			return fmt.Errorf("load repair records: %w", err)
		}
		d.Records = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// SaveTaskInput is the mechanic's work on one task. Images holds up to three
// slots; a nil slot keeps whatever URL the record already has.
type SaveTaskInput struct {
	Code        string
	TaskID      int
	Description string
	Images      []*upload.File
}

// SaveTask uploads new images and stores the task as saved. Any upload
// failure aborts the save.
func (s *RepairService) SaveTask(ctx context.Context, actor Actor, in SaveTaskInput) (*models.RepairRecord, error) {
	in.Code = strings.TrimSpace(in.Code)
	if in.Code == "" {
		return nil, ErrCodeRequired
	}
	if len(in.Images) > models.MaxRepairImages {
		return nil, ErrTooManyImages
	}

	records, err := s.api.Records(ctx, in.Code)
	if err != nil {
		return nil, fmt.Errorf("load repair records: %w", err)
	}
	existing, hasExisting := records.Latest(in.TaskID)

	uploaded, err := s.uploadTaskImages(ctx, in)
	if err != nil {
		return nil, err
	}

	var current [models.MaxRepairImages]string
	if hasExisting {
		current = existing.ImageURLs()
	}
	var urls [models.MaxRepairImages]*string
	for i := range urls {
		url := uploaded[i]
		if url == "" {
			url = current[i]
		}
		urls[i] = models.StringPtr(url)
	}
	desc := models.StringPtr(strings.TrimSpace(in.Description))

	var saved *models.RepairRecord
	if hasExisting {
		res, err := s.api.UpdateRecord(ctx, existing.ID, models.RepairRecordUpdate{
			RepairDescription: desc,
			ImageURL1:         urls[0],
			ImageURL2:         urls[1],
			ImageURL3:         urls[2],
			Status:            models.RecordSaved,
			MechanicName:      actor.Username,
		})
		if err != nil {
			return nil, fmt.Errorf("update repair record: %w", err)
		}
		saved = &res.Record
	} else {
		res, err := s.api.CreateRecords(ctx, []models.RepairRecordInput{{
			MaintenanceRequestCode: in.Code,
			MaintenanceTaskID:      in.TaskID,
			RepairDescription:      desc,
			ImageURL1:              urls[0],
			ImageURL2:              urls[1],
			ImageURL3:              urls[2],
			Status:                 models.RecordSaved,
			MechanicName:           actor.Username,
		}})
		if err != nil {
			return nil, fmt.Errorf("create repair record: %w", err)
		}
		if len(res.Records) > 0 {
			saved = &res.Records[0]
		}
	}

	s.changed(ctx, actor, in.Code, notify.ActionSaved, []int{in.TaskID})
	return saved, nil
}

// uploadTaskImages returns one URL per slot, empty where no file was given.
func (s *RepairService) uploadTaskImages(ctx context.Context, in SaveTaskInput) ([models.MaxRepairImages]string, error) {
	var out [models.MaxRepairImages]string
	var files []upload.File
	var slots []int

	at := s.now()
	for i, f := range in.Images {
		if f == nil || len(f.Data) == 0 {
			continue
		}
		file := *f
		file.Filename = upload.ObjectName(at, in.Code, repairImageFilePart, strconv.Itoa(in.TaskID), strconv.Itoa(i))
		files = append(files, file)
		slots = append(slots, i)
	}
	if len(files) == 0 {
		return out, nil
	}

	urls, err := s.uploader.RunBatch(ctx, files, upload.FolderRepairTasks)
	if err != nil {
		return out, fmt.Errorf("upload repair images: %w", err)
	}
	for j, slot := range slots {
		out[slot] = urls[j]
	}
	return out, nil
}

// Complete marks every saved task of a request as completed.
func (s *RepairService) Complete(ctx context.Context, actor Actor, code string) ([]models.RepairRecord, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	records, err := s.api.Records(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load repair records: %w", err)
	}

	var pending []models.RepairRecord
	for _, rec := range records.LatestRecords {
		if rec.Status != nil && *rec.Status == models.RecordSaved {
			pending = append(pending, rec)
		}
	}
	if len(pending) == 0 {
		return nil, ErrNothingToComplete
	}

	done := make([]models.RepairRecord, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	for i, rec := range pending {
		i, rec := i, rec
		g.Go(func() error {
			res, err := s.api.UpdateRecord(gctx, rec.ID, models.RepairRecordUpdate{
				RepairDescription: rec.RepairDescription,
				ImageURL1:         rec.ImageURL1,
				ImageURL2:         rec.ImageURL2,
				ImageURL3:         rec.ImageURL3,
				Status:            models.RecordCompleted,
				MechanicName:      actor.Username,
			})
			if err != nil {
				return fmt.Errorf("complete task %d: %w", rec.MaintenanceTaskID, err)
			}
			done[i] = res.Record
			return nil
		})
	}
	err = g.Wait()

	// some tasks may have been completed before the failure
	taskIDs := make([]int, 0, len(pending))
	for _, rec := range pending {
		taskIDs = append(taskIDs, rec.MaintenanceTaskID)
	}
	s.changed(ctx, actor, code, notify.ActionCompleted, taskIDs)

	if err != nil {
		return nil, err
	}
	return done, nil
}

// Summary lists the tasks of each selected request.
func (s *RepairService) Summary(ctx context.Context, codes []string) (map[string][]models.TaskItem, error) {
	var clean []string
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		return map[string][]models.TaskItem{}, nil
	}
	return s.api.TasksBatch(ctx, clean)
}

// changed drops every cached list and tells other instances to do the same.
func (s *RepairService) changed(ctx context.Context, actor Actor, code, action string, taskIDs []int) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.log.WithError(err).Warn("cache purge failed")
	}
	err := s.notifier.RepairChanged(ctx, notify.RepairEvent{
		Code:     code,
		Action:   action,
		TaskIDs:  taskIDs,
		Username: actor.Username,
		At:       s.now(),
	})
	if err != nil {
		s.log.WithError(err).WithField("code", code).Warn("repair change notification failed")
	}
}
