// Package chart renders trend and forecast views as PNG line charts.
package chart
