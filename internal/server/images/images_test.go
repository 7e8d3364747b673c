package images

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "books",
		S3PublicURL:    "http://cdn.example/books",
	}
}

func stubAWS(t *testing.T) {
	t.Helper()
	origLoad, origNew, origPut, origDel := loadDefaultAWSConfig, newS3ClientFromConfig, putObject, deleteObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject, deleteObject = origLoad, origNew, origPut, origDel
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		require.NotNil(t, opts.BaseEndpoint)
		assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
		assert.True(t, opts.UsePathStyle)
		return &s3.Client{}
	}
}

func TestNewS3Store_LoadError(t *testing.T) {
	stubAWS(t)
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}
	_, err := NewS3Store(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no creds")
}

var (
	pngData  = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	gifData  = "GIF89a\x01\x00\x01\x00"
	jpegData = "\xff\xd8\xff\xe0\x00\x10JFIF"
	webpData = "RIFF\x24\x00\x00\x00WEBPVP8 "
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr error
	}{
		{"png", pngData, "image/png", nil},
		{"gif", gifData, "image/gif", nil},
		{"jpeg", jpegData, "image/jpeg", nil},
		{"webp", webpData, "image/webp", nil},
		{"svg", `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`, "", ErrNotAnImage},
		{"html", "<!DOCTYPE html><html></html>", "", ErrNotAnImage},
		{"pdf", "%PDF-1.7", "", ErrNotAnImage},
		{"empty", "", "", ErrNotAnImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, body, err := Sniff(strings.NewReader(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			replayed, _ := io.ReadAll(body)
			assert.Equal(t, tt.data, string(replayed))
		})
	}
}

func TestSniff_ReplaysLongBodies(t *testing.T) {
	data := pngData + strings.Repeat("x", 2000)
	_, body, err := Sniff(strings.NewReader(data))
	require.NoError(t, err)
	replayed, _ := io.ReadAll(body)
	assert.Equal(t, data, string(replayed))
}

func TestUpload(t *testing.T) {
	stubAWS(t)
	var got *s3.PutObjectInput
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput) error {
		got = in
		return nil
	}

	s, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), strings.NewReader(pngData))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "books", *got.Bucket)
	assert.Equal(t, "image/png", *got.ContentType)
	assert.Equal(t, "http://cdn.example/books/"+*got.Key, url)
	body, _ := io.ReadAll(got.Body)
	assert.Equal(t, pngData, string(body))
}

func TestUpload_RejectsNonImages(t *testing.T) {
	stubAWS(t)
	putObject = func(*s3.Client, context.Context, *s3.PutObjectInput) error {
		t.Fatal("must not upload")
		return nil
	}
	s, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestUpload_PutError(t *testing.T) {
	stubAWS(t)
	putObject = func(*s3.Client, context.Context, *s3.PutObjectInput) error { return errors.New("denied") }
	s, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), strings.NewReader(jpegData))
	assert.EqualError(t, err, "put image: denied")
}

func TestDelete(t *testing.T) {
	stubAWS(t)
	var keys []string
	deleteObject = func(_ *s3.Client, _ context.Context, in *s3.DeleteObjectInput) error {
		keys = append(keys, *in.Key)
		return nil
	}
	s, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "http://cdn.example/books/images/2024/09/01/abc"))
	require.NoError(t, s.Delete(context.Background(), "https://elsewhere.example/pic.png"))
	require.NoError(t, s.Delete(context.Background(), ""))

	assert.Equal(t, []string{"images/2024/09/01/abc"}, keys)
}

func TestNewKey(t *testing.T) {
	k := NewKey(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(k, "images/2024/09/01/"))
	assert.Len(t, k, len("images/2024/09/01/")+36)
}
