// Package media shapes cached media bytes into full or partial HTTP
// responses from a Range header of the form "bytes=<start>-<end>".
package media

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// RangeResult is a ready-to-write response: Code is 200, 206 or 416.
type RangeResult struct {
	Code          int
	Body          []byte
	ContentType   string
	Filename      string
	ContentLength int
	ContentRange  string
}

// ServeRange slices buf according to rangeHeader. An empty header yields the
// full buffer. A malformed header, start > end, or start beyond the buffer
// yields 416; an omitted start means 0 and an omitted or oversized end is
// clamped to len(buf)-1.
func ServeRange(buf []byte, contentType, filename, rangeHeader string) RangeResult {
	if rangeHeader == "" {
		return RangeResult{
			Code:          http.StatusOK,
			Body:          buf,
			ContentType:   contentType,
			Filename:      filename,
			ContentLength: len(buf),
		}
	}

	start, end, ok := parseRange(rangeHeader, len(buf))
	if !ok {
		return RangeResult{
			Code:         http.StatusRequestedRangeNotSatisfiable,
			ContentRange: fmt.Sprintf("bytes */%d", len(buf)),
		}
	}

	body := buf[start : end+1]
	return RangeResult{
		Code:          http.StatusPartialContent,
		Body:          body,
		ContentType:   contentType,
		Filename:      filename,
		ContentLength: len(body),
		ContentRange:  fmt.Sprintf("bytes %d-%d/%d", start, end, len(buf)),
	}
}

func parseRange(header string, size int) (start, end int, ok bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, 0, false
	}
	startStr, endStr, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	start = 0
	if startStr != "" {
		n, err := strconv.Atoi(startStr)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		start = n
	}

	end = size - 1
	if endStr != "" {
		n, err := strconv.Atoi(endStr)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		if n < end {
			end = n
		}
	}

	if start > end || start >= size {
		return 0, 0, false
	}
	return start, end, true
}
