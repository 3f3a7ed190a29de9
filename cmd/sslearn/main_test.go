package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliciaolivaresgil/sslearn/pkg/wrapper"
)

func TestBuildEngineRejectsBaseForDemocratic(t *testing.T) {
	flags := trainFlags{engine: "democratic", base: "knn", baseSet: true}
	_, err := buildEngine(flags, &wrapper.TraceLog{})
	assert.ErrorContains(t, err, "--base does not apply")
}

func TestBuildEngineDemocraticDefaultCommittee(t *testing.T) {
	flags := trainFlags{engine: "democratic", base: "tree"}
	eng, err := buildEngine(flags, &wrapper.TraceLog{})
	require.NoError(t, err)
	assert.NotNil(t, eng)
}

func TestBuildEngineUnknownNames(t *testing.T) {
	_, err := buildEngine(trainFlags{engine: "boosting", base: "tree"}, &wrapper.TraceLog{})
	assert.Error(t, err)
	_, err = buildEngine(trainFlags{engine: "setred", base: "svm"}, &wrapper.TraceLog{})
	assert.Error(t, err)
}
