package metrics

import (
	"time"
)

// Labels defines the labels that can be attached to the request metrics.
type Labels struct {
	RType         RequestType
	Browser       Browser
	RequestStatus RequestStatus
}

// StoreLabels defines the labels attached to banner store calls.
type StoreLabels struct {
	Operation StoreOperation
	Status    StoreStatus
}

// Label typecasting. See below the type definitions for possible values

// RequestType : Request type enumeration
type RequestType string

// RequestStatus : The request return status
type RequestStatus string

// Browser type enumeration
type Browser string

// StoreOperation : Banner store call enumeration
type StoreOperation string

// StoreStatus : Banner store call result
type StoreStatus string

// The request types
const (
	ReqTypeRender RequestType = "render"
	ReqTypeAdmin  RequestType = "admin"
)

func RequestTypes() []RequestType {
	return []RequestType{
		ReqTypeRender,
		ReqTypeAdmin,
	}
}

// Request/return status
const (
	RequestStatusOK        RequestStatus = "ok"
	RequestStatusNoContent RequestStatus = "nocontent"
	RequestStatusBadInput  RequestStatus = "badinput"
	RequestStatusErr       RequestStatus = "err"
)

func RequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusOK,
		RequestStatusNoContent,
		RequestStatusBadInput,
		RequestStatusErr,
	}
}

// Browser flag; at this point we only care about identifying Safari
const (
	BrowserSafari Browser = "safari"
	BrowserOther  Browser = "other"
)

func BrowserTypes() []Browser {
	return []Browser{
		BrowserSafari,
		BrowserOther,
	}
}

const (
	StoreFetch StoreOperation = "fetch"
	StoreSave  StoreOperation = "save"
	StoreList  StoreOperation = "list"
)

func StoreOperations() []StoreOperation {
	return []StoreOperation{
		StoreFetch,
		StoreSave,
		StoreList,
	}
}

const (
	StoreStatusOK       StoreStatus = "ok"
	StoreStatusNotFound StoreStatus = "notfound"
	StoreStatusErr      StoreStatus = "err"
)

func StoreStatuses() []StoreStatus {
	return []StoreStatus{
		StoreStatusOK,
		StoreStatusNotFound,
		StoreStatusErr,
	}
}

// MetricsEngine is a generic interface to record metrics into the desired backend
// The first three metrics function fire off once per incoming request, so total metrics
// will equal the total number of incoming requests. The remaining ones fire per banner
// or per store call.
type MetricsEngine interface {
	RecordConnectionAccept(success bool)
	RecordConnectionClose(success bool)
	RecordRequest(labels Labels)
	RecordRequestTime(labels Labels, length time.Duration)
	// RecordImpressions counts impressions served for a banner.
	RecordImpressions(banner string, count int)
	// RecordRemains reports the impressions a banner has left after a render or an admin change.
	RecordRemains(banner string, remains int)
	RecordReplenish(banner string)
	RecordStoreTime(labels StoreLabels, length time.Duration)
	RecordTemplateCache(hit bool)
}
