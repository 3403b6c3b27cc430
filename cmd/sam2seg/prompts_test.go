package main

import (
	"testing"

	"github.com/getcharzp/go-segment/sam2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeList_Points(t *testing.T) {
	var l shapeList
	require.NoError(t, l.Set("10,20"))
	require.NoError(t, l.Set(" 1.5 , 2 "))

	assert.Equal(t, []sam2.Shape{sam2.NewPoint(10, 20), sam2.NewPoint(1.5, 2)}, l.shapes)
	assert.Equal(t, "10,20 1.5,2", l.String())
	assert.Error(t, l.Set("1,2,3,4"))
	assert.Error(t, l.Set("a,b"))
}

func TestShapeList_Rects(t *testing.T) {
	l := shapeList{rect: true}
	require.NoError(t, l.Set("10,10,100,100"))

	assert.Equal(t, []sam2.Shape{sam2.NewRect(10, 10, 100, 100)}, l.shapes)
	assert.Error(t, l.Set("1,2"))
}
