package filesystem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chasex/glog"
	"github.com/prebid/prebid-banners/analytics"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/errortypes"
)

type RequestType string

const (
	IMPRESSION RequestType = "/banners"
	ADMIN      RequestType = "/admin/banners"
)

// Module that can perform transactional logging. The log file is rotated daily.
type FileLogger struct {
	Logger *glog.Logger
}

type logImpression struct {
	Type      RequestType `json:"type"`
	ID        string      `json:"id"`
	Banner    string      `json:"banner"`
	Requested string      `json:"requested,omitempty"`
	Count     int         `json:"count"`
	Remains   int         `json:"remains"`
	Status    int         `json:"status"`
	Errors    []logError  `json:"errors,omitempty"`
	StartTime time.Time   `json:"start_time"`
}

type logAdmin struct {
	Type      RequestType     `json:"type"`
	ID        string          `json:"id"`
	Banner    string          `json:"banner"`
	Action    string          `json:"action"`
	Config    *banners.Config `json:"config,omitempty"`
	Status    int             `json:"status"`
	Errors    []logError      `json:"errors,omitempty"`
	StartTime time.Time       `json:"start_time"`
}

// Writes ImpressionObject to file
func (f *FileLogger) LogImpressionObject(io *analytics.ImpressionObject) {
	if io == nil {
		return
	}
	var b bytes.Buffer
	jsonify(&b, &logImpression{
		Type:      IMPRESSION,
		ID:        io.ID,
		Banner:    io.Banner,
		Requested: io.Requested,
		Count:     io.Count,
		Remains:   io.Remains,
		Status:    io.Status,
		Errors:    errorEntries(io.Errors),
		StartTime: io.StartTime,
	})
	f.Logger.Debug(b.String())
	f.Logger.Flush()
}

// Writes AdminObject to file
func (f *FileLogger) LogAdminObject(ao *analytics.AdminObject) {
	if ao == nil {
		return
	}
	var b bytes.Buffer
	jsonify(&b, &logAdmin{
		Type:      ADMIN,
		ID:        ao.ID,
		Banner:    ao.Banner,
		Action:    ao.Action,
		Config:    ao.Config,
		Status:    ao.Status,
		Errors:    errorEntries(ao.Errors),
		StartTime: ao.StartTime,
	})
	f.Logger.Debug(b.String())
	f.Logger.Flush()
}

func (f *FileLogger) Shutdown() {
	f.Logger.Flush()
}

func jsonify(buffer *bytes.Buffer, entry interface{}) {
	b, err := json.Marshal(entry)
	if err == nil {
		buffer.Write(b)
	} else {
		fmt.Fprintf(buffer, "Transactional Logs Error: %T badly formed %v", entry, err)
	}
}

type logError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}

func errorEntries(errs []error) []logError {
	if len(errs) == 0 {
		return nil
	}
	entries := make([]logError, 0, len(errs))
	for _, err := range errs {
		entries = append(entries, logError{
			Code:    errortypes.ReadCode(err),
			Message: err.Error(),
			Warning: errortypes.IsWarning(err),
		})
	}
	return entries
}

// Method to initialize the analytic module
func NewFileLogger(filename string) (analytics.Module, error) {
	options := glog.LogOptions{
		File:  filename,
		Flag:  glog.LstdFlags,
		Level: glog.Ldebug,
		Mode:  glog.R_Day,
	}
	logger, err := glog.New(options)
	if err != nil {
		return nil, err
	}
	return &FileLogger{logger}, nil
}
