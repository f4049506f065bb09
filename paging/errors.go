package paging

import "github.com/pkg/errors"

// FrameAllocationFailed is the error returned when a FrameAllocator runs out of physical frames
// while a page range is being mapped
var FrameAllocationFailed error = errors.New("physical frame allocation failed")

// PageAlreadyMapped is the error returned from Mapper.Map when the page already has a translation
var PageAlreadyMapped error = errors.New("page is already mapped")

// PageNotMapped is the error returned when an access touches a page without a present translation
var PageNotMapped error = errors.New("page is not mapped")

// PageNotWritable is the error returned when a store touches a page mapped without FlagWritable
var PageNotWritable error = errors.New("page is not writable")
