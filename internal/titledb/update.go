package titledb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"switchlib/internal/config"
	"switchlib/internal/logging"
	"switchlib/internal/services"
	"switchlib/internal/titleid"
)

// Source names one downloadable JSON file.
type Source struct {
	Key     string
	URL     string
	Overlay bool
}

// SourcesFromConfig converts the configured sources.
func SourcesFromConfig(cfg *config.Config) []Source {
	out := make([]Source, 0, len(cfg.TitleDB.Sources))
	for _, src := range cfg.TitleDB.Sources {
		out = append(out, Source{Key: src.Key, URL: src.URL, Overlay: src.Overlay})
	}
	return out
}

// HTTPDoer describes the HTTP client used for downloads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrUpdateInProgress reports that another process holds the update lock.
var ErrUpdateInProgress = errors.New("title database update already in progress")

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithHTTPClient injects the HTTP client (primarily for tests).
func WithHTTPClient(client HTTPDoer) UpdaterOption {
	return func(u *Updater) {
		if client != nil {
			u.client = client
		}
	}
}

// Updater downloads sources and rewrites the store.
type Updater struct {
	store    *Store
	lockPath string
	client   HTTPDoer
	logger   *slog.Logger
}

// NewUpdater builds an updater writing into store. lockPath guards against
// concurrent updates from separate processes.
func NewUpdater(store *Store, lockPath string, timeout time.Duration, logger *slog.Logger, opts ...UpdaterOption) *Updater {
	u := &Updater{
		store:    store,
		lockPath: lockPath,
		client:   &http.Client{Timeout: timeout},
		logger:   logging.NewComponentLogger(logger, "titledb"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UpdateResult summarizes a finished update.
type UpdateResult struct {
	Entries int      `json:"entries"`
	Sources []string `json:"sources"`
}

// entry is the subset of a title database record that is kept.
type entry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IconURL   string `json:"iconUrl"`
	Publisher string `json:"publisher"`
}

// Update downloads every source in order and replaces the stored titles.
// Nothing is written unless every download succeeds.
func (u *Updater) Update(ctx context.Context, sources []Source, report func(key string)) (UpdateResult, error) {
	var result UpdateResult
	if len(sources) == 0 {
		return result, services.Wrap(services.ErrConfiguration, "titledb", "update", "no sources configured", nil)
	}

	lock := flock.New(u.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("acquire titledb lock: %w", err)
	}
	if !ok {
		return result, ErrUpdateInProgress
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			u.logger.Warn("failed to release titledb lock", logging.Error(err))
		}
	}()

	merged := make(map[titleid.ID]Info)
	for _, src := range sources {
		if err := services.CheckCancelled(ctx, "titledb"); err != nil {
			return result, err
		}
		if report != nil {
			report(src.Key)
		}
		started := time.Now()
		records, err := u.download(ctx, src)
		if err != nil {
			return result, err
		}
		added := merge(merged, records, src.Overlay)
		u.logger.Info("title database source loaded",
			logging.String("source", src.Key),
			logging.Int("records", len(records)),
			logging.Int("added", added),
			logging.Duration("elapsed", time.Since(started)),
		)
		result.Sources = append(result.Sources, src.Key)
	}

	if err := u.store.Replace(ctx, merged, strings.Join(result.Sources, ",")); err != nil {
		return result, err
	}
	result.Entries = len(merged)
	return result, nil
}

func (u *Updater) download(ctx context.Context, src Source) (map[string]entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", src.Key, err)
	}
	req.Header.Set("User-Agent", "switchlib")

	resp, err := u.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrCancelled, "titledb", "download", src.Key, err)
		}
		return nil, services.Wrap(services.ErrTransient, "titledb", "download", src.Key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, services.Wrap(services.ErrTransient, "titledb", "download", fmt.Sprintf("%s returned HTTP %d", src.Key, resp.StatusCode), nil)
	}

	var records map[string]entry
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, services.Wrap(services.ErrValidation, "titledb", "decode", src.Key, err)
	}
	return records, nil
}

// merge folds records into merged keyed by base identifier and returns the
// number of new entries. Primary sources overwrite whole entries. Overlay
// sources replace the name (and publisher when present) of existing entries
// and add entries only when they carry a name. Once an entry exists, only a
// record whose own identifier is the base may change it, so update and DLC
// records never rename the game they belong to.
func merge(merged map[titleid.ID]Info, records map[string]entry, overlay bool) int {
	added := 0
	for _, rec := range records {
		id, ok := titleid.Parse(rec.ID)
		if !ok {
			continue
		}
		base := id.Base()
		existing, exists := merged[base]
		if exists && !id.IsBase() {
			continue
		}
		if !overlay {
			if !exists {
				added++
			}
			merged[base] = Info{ID: base, Name: rec.Name, IconURL: rec.IconURL, Publisher: rec.Publisher}
			continue
		}
		if rec.Name == "" {
			continue
		}
		if exists {
			existing.Name = rec.Name
			if rec.Publisher != "" {
				existing.Publisher = rec.Publisher
			}
			merged[base] = existing
			continue
		}
		merged[base] = Info{ID: base, Name: rec.Name, IconURL: rec.IconURL, Publisher: rec.Publisher}
		added++
	}
	return added
}
