package service

import "errors"

var (
	ErrMissingMedia    = errors.New("image message has no media id")
	ErrMediaResolution = errors.New("could not resolve media url")
	ErrDownload        = errors.New("could not download media")
	ErrStorage         = errors.New("could not store media")
	ErrExtraction      = errors.New("could not extract receipt data")
)
