package router

// Ver holds the version derived from the latest git tag.
// Set at build time using:
//
//	go build -ldflags "-X github.com/prebid/prebid-banners/router.Ver=`git describe --tags`"
var Ver string
