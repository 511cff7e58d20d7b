package main

import (
	"io"
	"log"
	"testing"
)

func TestNewMainFlags(t *testing.T) {
	newMainFlagsTests := []struct {
		osArgs  []string
		envVars map[string]string
		want    mainFlags
	}{
		{
			want: mainFlags{port: 4000},
		},
		{
			osArgs: []string{"", "-port=4001"},
			want:   mainFlags{port: 4001},
		},
		{
			envVars: map[string]string{"PORT": "4002"},
			want:    mainFlags{port: 4002},
		},
		{
			envVars: map[string]string{"PORT": "four"},
			want:    mainFlags{port: 4000},
		},
		{
			osArgs:  []string{"", "-port=4003"},
			envVars: map[string]string{"PORT": "4004"},
			want:    mainFlags{port: 4003},
		},
		{
			osArgs: []string{"", "-debug"},
			want:   mainFlags{port: 4000, debug: true},
		},
		{
			envVars: map[string]string{"HIDE_AND_SEEK_DEBUG": ""},
			want:    mainFlags{port: 4000, debug: true},
		},
	}
	for i, test := range newMainFlagsTests {
		osLookupEnvFunc := func(key string) (string, bool) {
			v, ok := test.envVars[key]
			return v, ok
		}
		got := newMainFlags(test.osArgs, osLookupEnvFunc)
		if test.want != got {
			t.Errorf("Test %v:\nwanted: %+v\ngot:    %+v", i, test.want, got)
		}
	}
}

func TestNewServer(t *testing.T) {
	m := mainFlags{
		port: 4005,
	}
	log := log.New(io.Discard, "", 0)
	s, err := m.newServer(log)
	switch {
	case err != nil:
		t.Errorf("unwanted error: %v", err)
	case s.Addr != ":4005":
		t.Errorf("wanted server address :4005, got %v", s.Addr)
	}
}
