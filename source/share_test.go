package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkarmaka98/streamwatch/monitor"
)

type fakeDownloader struct {
	body  string
	err   error
	calls int
}

func (f *fakeDownloader) DownloadStream(context.Context, *file.DownloadStreamOptions) (file.DownloadStreamResponse, error) {
	f.calls++
	if f.err != nil {
		return file.DownloadStreamResponse{}, f.err
	}
	return file.DownloadStreamResponse{
		DownloadResponse: file.DownloadResponse{Body: io.NopCloser(strings.NewReader(f.body))},
	}, nil
}

func TestShareDownloadFeedsReader(t *testing.T) {
	d := &fakeDownloader{body: "ts,iops\nt0,10\nt1,12\nt2,oops\nt3,50\n"}

	body, err := download(context.Background(), d, "metrics/iops.csv")
	require.NoError(t, err)
	defer body.Close()

	r := NewColumnReader(body, 1)
	var got []float64
	var bad int
	for {
		x, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			require.ErrorIs(t, err, monitor.ErrInvalidSample)
			bad++
			continue
		}
		got = append(got, x)
	}
	assert.Equal(t, []float64{10, 12, 50}, got)
	// header and "oops" are skipped as invalid samples
	assert.Equal(t, 2, bad)
	assert.Equal(t, 1, d.calls)
}

func TestShareDownloadError(t *testing.T) {
	boom := errors.New("ShareNotFound")
	_, err := download(context.Background(), &fakeDownloader{err: boom}, "data/a.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "data/a.csv")
}

func TestSplitSharePath(t *testing.T) {
	tests := []struct {
		path    string
		dirs    []string
		name    string
		wantErr bool
	}{
		{path: "a.csv", name: "a.csv"},
		{path: "metrics/a.csv", dirs: []string{"metrics"}, name: "a.csv"},
		{path: "/metrics//2024/a.csv", dirs: []string{"metrics", "2024"}, name: "a.csv"},
		{path: "", wantErr: true},
		{path: "metrics/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			dirs, name, err := splitSharePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dirs, dirs)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestOpenShareRejectsBadKey(t *testing.T) {
	_, err := OpenShare(context.Background(), ShareConfig{
		Account: "acct",
		Key:     "not base64!",
		Share:   "data",
		Path:    "a.csv",
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential")
}
