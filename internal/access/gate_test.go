package access

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casework/internal/access/mocks"
	"casework/internal/offender/models"
	dErrors "casework/pkg/domain-errors"
	"casework/pkg/requestcontext"
)

const (
	bypassExclusionRole   = "ROLE_IGNORE_DELIUS_EXCLUSIONS"
	bypassRestrictionRole = "ROLE_IGNORE_DELIUS_INCLUSIONS"
)

type GateSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	directory *mocks.MockDirectory
	gate      *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.directory = mocks.NewMockDirectory(s.ctrl)
	s.gate = NewGate(s.directory,
		[]string{bypassExclusionRole},
		[]string{bypassRestrictionRole},
		nil, slog.Default())
}

func (s *GateSuite) ctx(username string, authorities ...string) context.Context {
	ctx := context.Background()
	if username != "" {
		ctx = requestcontext.WithUsername(ctx, username)
	}
	return requestcontext.WithAuthorities(ctx, authorities)
}

func plainOffender() *models.Offender {
	return &models.Offender{ID: 11, CRN: "X320741"}
}

func excludedOffender() *models.Offender {
	return &models.Offender{
		ID: 11, CRN: "X320741",
		CurrentExclusion: true,
		ExclusionMessage: "You are excluded from viewing this offender record",
	}
}

func restrictedOffender() *models.Offender {
	return &models.Offender{
		ID: 11, CRN: "X320741",
		CurrentRestriction: true,
		RestrictionMessage: "This is a restricted offender record",
	}
}

func (s *GateSuite) TestNoFlagsAllowsAnyone() {
	s.Run("named user", func() {
		s.NoError(s.gate.Check(s.ctx("sandra.black", "ROLE_COMMUNITY"), plainOffender()))
	})
	s.Run("anonymous principal", func() {
		s.NoError(s.gate.Check(s.ctx("", "ROLE_COMMUNITY"), plainOffender()))
	})
}

func (s *GateSuite) TestExclusion() {
	s.Run("excluded user is denied with the exclusion message", func() {
		s.directory.EXPECT().IsExcludedFrom(gomock.Any(), "sandra.black", int64(11)).Return(true, nil)

		err := s.gate.Check(s.ctx("sandra.black", "ROLE_COMMUNITY"), excludedOffender())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(err.Error(), "You are excluded from viewing this offender record")
	})

	s.Run("user not on the exclusion list is allowed", func() {
		// Both checks consult the limitation; the restriction flag is unset
		// so only the exclusion lookup happens, once per applicable check.
		s.directory.EXPECT().IsExcludedFrom(gomock.Any(), "sandra.black", int64(11)).Return(false, nil).Times(2)

		s.NoError(s.gate.Check(s.ctx("sandra.black", "ROLE_COMMUNITY"), excludedOffender()))
	})

	s.Run("anonymous principals cannot be excluded", func() {
		s.NoError(s.gate.Check(s.ctx(""), excludedOffender()))
	})

	s.Run("bypass authority skips the exclusion check", func() {
		s.NoError(s.gate.Check(s.ctx("sandra.black", bypassExclusionRole), excludedOffender()))
	})

	s.Run("bypass matching is case-insensitive", func() {
		s.NoError(s.gate.Check(s.ctx("sandra.black", "role_ignore_delius_exclusions"), excludedOffender()))
	})

	s.Run("directory failure propagates as internal", func() {
		s.directory.EXPECT().IsExcludedFrom(gomock.Any(), "sandra.black", int64(11)).Return(false, errors.New("ldap down"))

		err := s.gate.Check(s.ctx("sandra.black"), excludedOffender())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *GateSuite) TestRestriction() {
	s.Run("user not on the authorised list is denied", func() {
		s.directory.EXPECT().IsAuthorisedFor(gomock.Any(), "sandra.black", int64(11)).Return(false, nil)

		err := s.gate.Check(s.ctx("sandra.black", "ROLE_COMMUNITY"), restrictedOffender())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(err.Error(), "This is a restricted offender record")
	})

	s.Run("authorised user is allowed", func() {
		s.directory.EXPECT().IsAuthorisedFor(gomock.Any(), "sandra.black", int64(11)).Return(true, nil)

		s.NoError(s.gate.Check(s.ctx("sandra.black", "ROLE_COMMUNITY"), restrictedOffender()))
	})

	s.Run("anonymous principal is restricted by default", func() {
		err := s.gate.Check(s.ctx("", "ROLE_COMMUNITY"), restrictedOffender())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("bypass authority skips the restriction check even anonymously", func() {
		s.NoError(s.gate.Check(s.ctx("", bypassRestrictionRole), restrictedOffender()))
	})
}

func (s *GateSuite) TestExclusionRunsBeforeRestriction() {
	offender := &models.Offender{
		ID: 11, CRN: "X320741",
		CurrentExclusion:   true,
		ExclusionMessage:   "excluded message",
		CurrentRestriction: true,
		RestrictionMessage: "restricted message",
	}

	s.Run("excluded user sees the exclusion message", func() {
		s.directory.EXPECT().IsExcludedFrom(gomock.Any(), "sandra.black", int64(11)).Return(true, nil)
		// Restriction lookup also happens while computing the limitation.
		s.directory.EXPECT().IsAuthorisedFor(gomock.Any(), "sandra.black", int64(11)).Return(true, nil)

		err := s.gate.Check(s.ctx("sandra.black"), offender)
		s.Require().Error(err)
		s.Contains(err.Error(), "excluded message")
	})

	s.Run("restriction still denies a non-excluded user", func() {
		s.directory.EXPECT().IsExcludedFrom(gomock.Any(), "sandra.black", int64(11)).Return(false, nil).Times(2)
		s.directory.EXPECT().IsAuthorisedFor(gomock.Any(), "sandra.black", int64(11)).Return(false, nil).Times(2)

		err := s.gate.Check(s.ctx("sandra.black"), offender)
		s.Require().Error(err)
		s.Contains(err.Error(), "restricted message")
	})
}

func (s *GateSuite) TestLimitationOf() {
	s.Run("no flags means no directory lookups", func() {
		limitation, err := s.gate.LimitationOf(context.Background(), "sandra.black", plainOffender())
		s.Require().NoError(err)
		s.False(limitation.UserExcluded)
		s.False(limitation.UserRestricted)
	})

	s.Run("messages only set when the check applies to this user", func() {
		s.directory.EXPECT().IsExcludedFrom(gomock.Any(), "sandra.black", int64(11)).Return(false, nil)

		limitation, err := s.gate.LimitationOf(context.Background(), "sandra.black", excludedOffender())
		s.Require().NoError(err)
		s.False(limitation.UserExcluded)
		s.Empty(limitation.ExclusionMessage)
	})
}
