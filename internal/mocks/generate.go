package mocks

//go:generate mockery --name RecordStore --srcpkg github.com/aevon-lab/salescope/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
