package shared

import "handicraft-store/internal/infra"

// TranslateNotFound swaps a repository NOT_FOUND for the domain sentinel.
func TranslateNotFound(err, notFound error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return notFound
	}
	return err
}

func TranslateDuplicate(err, conflict error) error {
	if infra.IsKind(err, infra.KindDuplicateKey) {
		return conflict
	}
	return err
}

func IsNotFound(err error) bool {
	return infra.IsKind(err, infra.KindNotFound)
}
