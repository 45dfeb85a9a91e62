// Package feedback stores free-form feedback sent by signed-in readers.
package feedback

import "github.com/inkbloom/inkbloom/internal/models"

// MaxLength is the longest accepted message, in characters.
const MaxLength = 2000

type Feedback = models.Feedback
