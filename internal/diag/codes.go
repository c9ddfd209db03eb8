package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Проектные
	ProjInfo        Code = 1000
	ProjBadManifest Code = 1001
	ProjNoSources   Code = 1002

	// Синтаксис mini-файлов
	SynInfo           Code = 2000
	SynBadLine        Code = 2001
	SynBadImport      Code = 2002
	SynBadDeclaration Code = 2003
	SynDuplicateDecl  Code = 2004

	// Семантические
	SemaInfo             Code = 3000
	SemaUnresolvedImport Code = 3001
	SemaDuplicateDecl    Code = 3002
	SemaUndefinedName    Code = 3003
)

func (c Code) String() string {
	return fmt.Sprintf("R%04d", uint16(c))
}
