package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/file"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/service"
	"go.uber.org/zap"
)

type fileDownloader interface {
	DownloadStream(ctx context.Context, options *file.DownloadStreamOptions) (file.DownloadStreamResponse, error)
}

// ShareConfig locates a file on an Azure file share.
type ShareConfig struct {
	Account string
	Key     string
	Share   string
	// Path is slash separated and relative to the share root, e.g.
	// "metrics/iops.csv".
	Path string
}

// OpenShare starts a download of cfg.Path and returns its body. The caller
// closes it once the stream is consumed. Nothing is written to the share.
func OpenShare(ctx context.Context, cfg ShareConfig, logger *zap.Logger) (io.ReadCloser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dirs, name, err := splitSharePath(cfg.Path)
	if err != nil {
		return nil, err
	}

	cred, err := service.NewSharedKeyCredential(cfg.Account, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}
	svcURL := fmt.Sprintf("https://%s.file.core.windows.net/", cfg.Account)
	svc, err := service.NewClientWithSharedKeyCredential(svcURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create file service client: %w", err)
	}

	dir := svc.NewShareClient(cfg.Share).NewRootDirectoryClient()
	for _, d := range dirs {
		dir = dir.NewSubdirectoryClient(d)
	}
	logger.Info("downloading from file share",
		zap.String("account", cfg.Account),
		zap.String("share", cfg.Share),
		zap.String("path", cfg.Path),
	)
	return download(ctx, dir.NewFileClient(name), cfg.Share+"/"+cfg.Path)
}

func download(ctx context.Context, f fileDownloader, where string) (io.ReadCloser, error) {
	resp, err := f.DownloadStream(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", where, err)
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("download %s: empty response body", where)
	}
	return resp.Body, nil
}

// splitSharePath separates the directory segments of p from the file name.
func splitSharePath(p string) (dirs []string, name string, err error) {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 || strings.HasSuffix(p, "/") {
		return nil, "", fmt.Errorf("share path %q does not name a file", p)
	}
	return parts[:len(parts)-1], parts[len(parts)-1], nil
}
