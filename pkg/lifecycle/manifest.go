package lifecycle

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/vein-tools/veind/pkg/errdefs"
)

// Manifest is the subset of the Steam app manifest this service reads.
// The manifest is a local file written by the update tool; reading it
// involves no network access.
type Manifest struct {
	AppID       string
	BuildID     string
	LastUpdated time.Time
}

// acf files are Valve KeyValues text, e.g.
//
//	"AppState"
//	{
//		"appid"		"2131400"
//		"buildid"	"14781423"
//		"LastUpdated"	"1721940623"
//	}
//
// only flat quoted key/value pairs are relevant here
var acfPairRegex = regexp.MustCompile(`^\s*"([^"]+)"\s+"([^"]*)"\s*$`)

func manifestPath(serverDir, appID string) string {
	return filepath.Join(serverDir, "steamapps", fmt.Sprintf("appmanifest_%s.acf", appID))
}

// ReadManifest parses the cached app manifest for the given app.
func ReadManifest(serverDir, appID string) (*Manifest, error) {
	path := manifestPath(serverDir, appID)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("app manifest %s not found (server not installed yet?): %w",
				path, errdefs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open app manifest %s: %w", path, err)
	}
	defer f.Close()

	m := &Manifest{AppID: appID}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		match := acfPairRegex.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		switch match[1] {
		case "buildid":
			m.BuildID = match[2]
		case "LastUpdated":
			if ts, err := strconv.ParseInt(match[2], 10, 64); err == nil {
				m.LastUpdated = time.Unix(ts, 0).UTC()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read app manifest %s: %w", path, err)
	}

	if m.BuildID == "" {
		return nil, fmt.Errorf("app manifest %s has no build id: %w", path, errdefs.ErrInvalidArgument)
	}
	return m, nil
}
