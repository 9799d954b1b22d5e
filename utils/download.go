package utils

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

// DownloadImage downloads a remote frame and saves it into a temporary file.
// The caller is responsible for removing the file once it is not needed anymore.
func DownloadImage(uri string) (*os.File, error) {
	res, err := http.Get(uri)
	if err != nil {
		return nil, fmt.Errorf("unable to download image file from URI %s: %w", uri, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download image file from URI %s, status %v", uri, res.Status)
	}

	tmpfile, err := os.CreateTemp("", "frame-*"+path.Ext(uri))
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary file: %w", err)
	}

	if _, err := io.Copy(tmpfile, res.Body); err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return nil, fmt.Errorf("unable to copy the source URI into the destination file: %w", err)
	}

	ctype, err := DetectContentType(tmpfile.Name())
	if err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return nil, err
	}

	if !strings.Contains(ctype, "image") {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return nil, fmt.Errorf("the downloaded file is not a valid image type")
	}

	// Reset the read pointer, so the frame can be decoded straight away.
	if _, err := tmpfile.Seek(0, io.SeekStart); err != nil {
		tmpfile.Close()
		return nil, err
	}
	return tmpfile, nil
}

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// DetectContentType detects the file type by reading MIME type information of the file content.
func DetectContentType(fname string) (string, error) {
	file, err := os.Open(fname)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("could not close the opened file: %v", err)
		}
	}()

	// Only the first 512 bytes are used to sniff the content type.
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	// Always returns a valid content-type and "application/octet-stream" if no others seemed to match.
	return http.DetectContentType(buffer[:n]), nil
}
