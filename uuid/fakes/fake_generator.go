package fakes

import "sync"

type FakeGenerator struct {
	mu sync.Mutex

	GeneratedUUID  string
	GeneratedUUIDs []string
	GenerateError  error
	GenerateCalls  int
}

func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{}
}

func (gen *FakeGenerator) Generate() (string, error) {
	gen.mu.Lock()
	defer gen.mu.Unlock()

	gen.GenerateCalls++

	if gen.GenerateError != nil {
		return "", gen.GenerateError
	}

	if len(gen.GeneratedUUIDs) > 0 {
		uuid := gen.GeneratedUUIDs[0]
		gen.GeneratedUUIDs = gen.GeneratedUUIDs[1:]
		return uuid, nil
	}

	return gen.GeneratedUUID, nil
}
