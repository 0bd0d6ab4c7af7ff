package repository

import (
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/util"

	"gorm.io/gorm"
)

// deleteQuizzesTx 在同一事务中删除测验及其题目和选项，已有成绩时拒绝
func deleteQuizzesTx(tx *gorm.DB, quizIDs []uint) error {
	if len(quizIDs) == 0 {
		return nil
	}

	var attempts int64
	if err := tx.Model(&model.QuizResult{}).Where("quiz_id IN ?", quizIDs).Count(&attempts).Error; err != nil {
		return err
	}
	if attempts > 0 {
		return util.ErrQuizHasAttempts
	}

	questionIDs := tx.Model(&model.Question{}).Select("id").Where("quiz_id IN ?", quizIDs)
	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.Option{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&model.Question{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", quizIDs).Delete(&model.Quiz{}).Error
}

func quizHasResultsTx(tx *gorm.DB, quizID uint) (bool, error) {
	var count int64
	err := tx.Model(&model.QuizResult{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count > 0, err
}

// deleteChaptersTx 先删除章节下的测验，再删除章节，返回被删除的测验 id
func deleteChaptersTx(tx *gorm.DB, chapterIDs []uint) ([]uint, error) {
	if len(chapterIDs) == 0 {
		return nil, nil
	}

	var quizIDs []uint
	if err := tx.Model(&model.Quiz{}).Where("chapter_id IN ?", chapterIDs).Pluck("id", &quizIDs).Error; err != nil {
		return nil, err
	}
	if err := deleteQuizzesTx(tx, quizIDs); err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", chapterIDs).Delete(&model.Chapter{}).Error; err != nil {
		return nil, err
	}
	return quizIDs, nil
}
