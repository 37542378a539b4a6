package assembler

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// VersionKey is the workspace status key holding the release version.
const VersionKey = "BUILD_SCM_VERSION"

// ReadBanner loads the banner text and stamps the version into it.
// Missing files and an empty placeholder degrade to an empty or unstamped
// banner.
func ReadBanner(fs afero.Fs, bannerFile, stampData, placeholder string, logger *log.Logger) string {
	if bannerFile == "" {
		return ""
	}

	data, err := afero.ReadFile(fs, bannerFile)
	if err != nil {
		logger.Warn("banner unavailable", "file", bannerFile, "err", err)
		return ""
	}
	banner := string(data)

	if stampData == "" || placeholder == "" {
		return banner
	}

	version, err := ReadVersion(fs, stampData)
	if err != nil {
		logger.Warn("stamp data unavailable", "file", stampData, "err", err)
		return banner
	}
	if version == "" {
		logger.Debug("no version in stamp data", "file", stampData, "key", VersionKey)
		return banner
	}

	return strings.Replace(banner, placeholder, version, 1)
}

// ReadVersion returns the VersionKey value from a stamp file, or "" when the
// key is absent.
func ReadVersion(fs afero.Fs, stampData string) (string, error) {
	data, err := afero.ReadFile(fs, stampData)
	if err != nil {
		return "", errors.Wrap(err, "reading stamp data")
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == VersionKey {
			return fields[1], nil
		}
	}

	err = scanner.Err()
	if err != nil {
		return "", errors.Wrap(err, "scanning stamp data")
	}
	return "", nil
}
