package helpers

import (
	"strconv"
	"strings"

	"github.com/eventpass/api/functions/gateway/types"
)

// CompareVersions compares two dotted version strings numerically, segment by
// segment. The shorter version is padded with zero segments, so "1.2" equals
// "1.2.0". Non-numeric segments count as zero. Returns -1, 0, or 1.
func CompareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	length := len(aParts)
	if len(bParts) > length {
		length = len(bParts)
	}

	for i := 0; i < length; i++ {
		aNum := 0
		bNum := 0
		if i < len(aParts) {
			aNum, _ = strconv.Atoi(strings.TrimSpace(aParts[i]))
		}
		if i < len(bParts) {
			bNum, _ = strconv.Atoi(strings.TrimSpace(bParts[i]))
		}
		if aNum < bNum {
			return -1
		}
		if aNum > bNum {
			return 1
		}
	}
	return 0
}

// EvaluateVersion computes the update verdicts for a client version against
// the published latest and minimum-required rows. forceUpdate fires only when
// the client is strictly below the minimum; running exactly the minimum is
// allowed. When both the client and the latest row carry build numbers, the
// build comparison overrides the version-string verdict for needsUpdate.
func EvaluateVersion(currentVersion string, currentBuild int, latest, minimum *types.AppVersion) types.VersionCheckResponse {
	resp := types.VersionCheckResponse{
		CurrentVersion: currentVersion,
	}

	if minimum != nil {
		resp.MinimumVersion = minimum.Version
		resp.ForceUpdate = CompareVersions(currentVersion, minimum.Version) < 0
	}

	if latest != nil {
		resp.LatestVersion = latest.Version
		resp.UpdateMessage = latest.UpdateMessage
		resp.NeedsUpdate = CompareVersions(currentVersion, latest.Version) < 0
		if currentBuild > 0 && latest.BuildNumber > 0 {
			resp.NeedsUpdate = currentBuild < latest.BuildNumber
		}
	}

	if resp.ForceUpdate && minimum != nil && resp.UpdateMessage == "" {
		resp.UpdateMessage = minimum.UpdateMessage
	}

	return resp
}
