package io

import (
	"errors"

	"github.com/ezrec/sim51/translate"
)

var f = translate.From

var (
	// Device errors
	ErrChannelFull = errors.New(f("channel full"))
)
